package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent arqa configuration stored as config.toml
// in the .arqa/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Questions QuestionsConfig `toml:"questions"`
	Answers   AnswersConfig   `toml:"answers"`
}

// StorageConfig holds vector store settings.
type StorageConfig struct {
	// Provider selects the vector store backend ("flat" or "sqlitevec").
	Provider string `toml:"provider,omitempty"`

	// Dir is the directory holding the persisted collection artifacts.
	// Empty means the resolved .arqa/ directory.
	Dir string `toml:"dir,omitempty"`

	// Collection names the logical store; artifacts derive their base
	// filename from it.
	Collection string `toml:"collection,omitempty"`

	// SQLitePath is the database file used by the sqlitevec provider.
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`

	// Rate is the maximum number of embedding calls per second.
	Rate float64 `toml:"rate,omitempty"`

	// CachePath is the persisted content-hash embedding cache.
	// Empty means <storage dir>/embedding_cache.json.
	CachePath string `toml:"cache_path,omitempty"`
}

// ChunkingConfig holds segmenter token budgets. Each per-kind budget must not
// exceed MaxTokens; values are clamped at load.
type ChunkingConfig struct {
	MaxTokens        int `toml:"max_tokens,omitempty"`
	FigureMaxTokens  int `toml:"figure_max_tokens,omitempty"`
	MessageMaxTokens int `toml:"message_max_tokens,omitempty"`
	CddMaxTokens     int `toml:"cdd_max_tokens,omitempty"`
	ArxmlMaxTokens   int `toml:"arxml_max_tokens,omitempty"`

	// MaxChunksPerFile caps the chunk count per ingested document.
	// Zero means unlimited.
	MaxChunksPerFile int `toml:"max_chunks_per_file,omitempty"`
}

// QuestionsConfig holds canonical question mapping settings.
type QuestionsConfig struct {
	// MapPath is the canonical question map JSON file.
	// Empty means <storage dir>/question_map.json.
	MapPath string `toml:"map_path,omitempty"`

	// FuzzyCutoff is the minimum similarity ratio for fuzzy resolution.
	FuzzyCutoff float64 `toml:"fuzzy_cutoff,omitempty"`

	// HistoryWindow is how many prior questions feed the context rewrite.
	HistoryWindow int `toml:"history_window,omitempty"`
}

// AnswersConfig holds good-answer cache settings.
type AnswersConfig struct {
	// Path is the good-answer CSV file.
	// Empty means <storage dir>/good_answers.csv.
	Path string `toml:"path,omitempty"`

	// Threshold is the minimum cosine similarity for a good-answer hit.
	Threshold float64 `toml:"threshold,omitempty"`

	// TopK is how many chunks retrieval returns.
	TopK int `toml:"top_k,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(get func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if v := *get(c); v != 0 {
				return strconv.Itoa(v)
			}
			return ""
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value %q: %w", v, err)
			}
			*get(c) = n
			return nil
		},
	}
}

func floatKey(get func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if v := *get(c); v != 0 {
				return strconv.FormatFloat(v, 'g', -1, 64)
			}
			return ""
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid float value %q: %w", v, err)
			}
			*get(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.dir": {
		get: func(c *Config) string { return c.Storage.Dir },
		set: func(c *Config, v string) error { c.Storage.Dir = v; return nil },
	},
	"storage.collection": {
		get: func(c *Config) string { return c.Storage.Collection },
		set: func(c *Config, v string) error { c.Storage.Collection = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"embedding.rate":       floatKey(func(c *Config) *float64 { return &c.Embedding.Rate }),
	"embedding.cache_path": {
		get: func(c *Config) string { return c.Embedding.CachePath },
		set: func(c *Config, v string) error { c.Embedding.CachePath = v; return nil },
	},
	"chunking.max_tokens":          intKey(func(c *Config) *int { return &c.Chunking.MaxTokens }),
	"chunking.figure_max_tokens":   intKey(func(c *Config) *int { return &c.Chunking.FigureMaxTokens }),
	"chunking.message_max_tokens":  intKey(func(c *Config) *int { return &c.Chunking.MessageMaxTokens }),
	"chunking.cdd_max_tokens":      intKey(func(c *Config) *int { return &c.Chunking.CddMaxTokens }),
	"chunking.arxml_max_tokens":    intKey(func(c *Config) *int { return &c.Chunking.ArxmlMaxTokens }),
	"chunking.max_chunks_per_file": intKey(func(c *Config) *int { return &c.Chunking.MaxChunksPerFile }),
	"questions.map_path": {
		get: func(c *Config) string { return c.Questions.MapPath },
		set: func(c *Config, v string) error { c.Questions.MapPath = v; return nil },
	},
	"questions.fuzzy_cutoff":   floatKey(func(c *Config) *float64 { return &c.Questions.FuzzyCutoff }),
	"questions.history_window": intKey(func(c *Config) *int { return &c.Questions.HistoryWindow }),
	"answers.path": {
		get: func(c *Config) string { return c.Answers.Path },
		set: func(c *Config, v string) error { c.Answers.Path = v; return nil },
	},
	"answers.threshold": floatKey(func(c *Config) *float64 { return &c.Answers.Threshold }),
	"answers.top_k":     intKey(func(c *Config) *int { return &c.Answers.TopK }),
}
