package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/arqalabs/arqa/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ARQA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindFlag)
//  2. Environment variables (ARQA_EMBEDDING_MODEL, ARQA_STORAGE_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("ARQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.collection", d.Storage.Collection)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.rate", d.Embedding.Rate)
	v.SetDefault("embedding.cache_path", d.Embedding.CachePath)

	// Chunking
	v.SetDefault("chunking.max_tokens", d.Chunking.MaxTokens)
	v.SetDefault("chunking.figure_max_tokens", d.Chunking.FigureMaxTokens)
	v.SetDefault("chunking.message_max_tokens", d.Chunking.MessageMaxTokens)
	v.SetDefault("chunking.cdd_max_tokens", d.Chunking.CddMaxTokens)
	v.SetDefault("chunking.arxml_max_tokens", d.Chunking.ArxmlMaxTokens)
	v.SetDefault("chunking.max_chunks_per_file", d.Chunking.MaxChunksPerFile)

	// Questions
	v.SetDefault("questions.map_path", d.Questions.MapPath)
	v.SetDefault("questions.fuzzy_cutoff", d.Questions.FuzzyCutoff)
	v.SetDefault("questions.history_window", d.Questions.HistoryWindow)

	// Answers
	v.SetDefault("answers.path", d.Answers.Path)
	v.SetDefault("answers.threshold", d.Answers.Threshold)
	v.SetDefault("answers.top_k", d.Answers.TopK)
}

// ConfigFromViper materializes a Config from the viper state, applying the
// same default merging and budget clamping as file loads.
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	// The Config struct carries toml tags; reuse them for viper decoding so
	// the dotted keys stay aligned with the file layout.
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}
