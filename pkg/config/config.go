// Package config manages the persistent arqa configuration stored as
// config.toml in the .arqa/ directory, plus the viper layer that binds
// environment variables and CLI flags over it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/arqalabs/arqa/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetDir  string
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .arqa/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetDir = target
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the sorted list of all supported configuration key names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// GetTargetDir returns the resolved .arqa/ directory.
func (c *Configer) GetTargetDir() string {
	return c.targetDir
}

// LoadConfig loads the configuration from config.toml in the target .arqa/
// directory. If the file does not exist, returns NewDefaultConfig() so callers
// always receive a fully-populated Config with sane defaults. Fields
// explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// ParseConfigTOML decodes a Config from raw TOML bytes.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from
// NewDefaultConfig() and clamps per-kind token budgets to the global cap.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = defaults.Storage.Provider
	}
	if cfg.Storage.Collection == "" {
		cfg.Storage.Collection = defaults.Storage.Collection
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = defaults.Embedding.Provider
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Embedding.Model
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = defaults.Embedding.Dimensions
	}
	if cfg.Embedding.Rate == 0 {
		cfg.Embedding.Rate = defaults.Embedding.Rate
	}

	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = defaults.Chunking.MaxTokens
	}
	if cfg.Chunking.FigureMaxTokens == 0 {
		cfg.Chunking.FigureMaxTokens = defaults.Chunking.FigureMaxTokens
	}
	if cfg.Chunking.MessageMaxTokens == 0 {
		cfg.Chunking.MessageMaxTokens = defaults.Chunking.MessageMaxTokens
	}
	if cfg.Chunking.CddMaxTokens == 0 {
		cfg.Chunking.CddMaxTokens = defaults.Chunking.CddMaxTokens
	}
	if cfg.Chunking.ArxmlMaxTokens == 0 {
		cfg.Chunking.ArxmlMaxTokens = defaults.Chunking.ArxmlMaxTokens
	}

	// Per-kind budgets may never exceed the global cap.
	clampTo(&cfg.Chunking.FigureMaxTokens, cfg.Chunking.MaxTokens)
	clampTo(&cfg.Chunking.MessageMaxTokens, cfg.Chunking.MaxTokens)
	clampTo(&cfg.Chunking.CddMaxTokens, cfg.Chunking.MaxTokens)
	clampTo(&cfg.Chunking.ArxmlMaxTokens, cfg.Chunking.MaxTokens)

	if cfg.Questions.FuzzyCutoff == 0 {
		cfg.Questions.FuzzyCutoff = defaults.Questions.FuzzyCutoff
	}
	if cfg.Questions.HistoryWindow == 0 {
		cfg.Questions.HistoryWindow = defaults.Questions.HistoryWindow
	}

	if cfg.Answers.Threshold == 0 {
		cfg.Answers.Threshold = defaults.Answers.Threshold
	}
	if cfg.Answers.TopK == 0 {
		cfg.Answers.TopK = defaults.Answers.TopK
	}
}

func clampTo(v *int, max int) {
	if *v > max {
		*v = max
	}
}

// SaveConfig persists the configuration to config.toml in the target .arqa/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}
