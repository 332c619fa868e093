// Package configcmder provides the config command for managing persistent
// arqa configuration stored in the .arqa/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent arqa configuration.

Configuration is stored as config.toml in the .arqa/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.dir, storage.collection, storage.sqlite_path,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions, embedding.rate, embedding.cache_path,
  chunking.max_tokens, chunking.figure_max_tokens,
  chunking.message_max_tokens, chunking.cdd_max_tokens,
  chunking.arxml_max_tokens, chunking.max_chunks_per_file,
  questions.map_path, questions.fuzzy_cutoff, questions.history_window,
  answers.path, answers.threshold, answers.top_k

Use subcommands to get, set, or list configuration values:
  arqa config set <key> <value>    Set a configuration value
  arqa config get <key>            Get a configuration value
  arqa config list                 List all configuration values

Examples:
  arqa config set embedding.model text-embedding-3-small
  arqa config set chunking.max_tokens 500
  arqa config get storage.collection
  arqa config list`

const configShortDesc string = "Manage persistent arqa configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
