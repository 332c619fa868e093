// Package arqacmder
package arqacmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/arqalabs/arqa/cmd/arqa/ask"
	configcmder "github.com/arqalabs/arqa/cmd/arqa/config"
	goodcmder "github.com/arqalabs/arqa/cmd/arqa/good"
	ingestcmder "github.com/arqalabs/arqa/cmd/arqa/ingest"
	versioncmder "github.com/arqalabs/arqa/cmd/version"
)

const arqaLongDesc string = `Arqa answers questions over AUTOSAR standards documents.

Ingest documents and ask questions using:
  arqa ingest <paths...>   Chunk, embed and index documents
  arqa ask <question>      Retrieve ranked context for a question
  arqa config              Manage persistent configuration`

const arqaShortDesc string = "Arqa - AUTOSAR document retrieval"

func NewArqaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arqa",
		Short: arqaShortDesc,
		Long:  arqaLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .arqa config directory")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(goodcmder.NewGoodCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
