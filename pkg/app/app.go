// Package app assembles the configured pipeline components for CLI commands:
// embedder, vector store, segmenter, question map, good-answer cache, and the
// ingestion and answer services built on them.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/answer"
	"github.com/arqalabs/arqa/pkg/chunk"
	"github.com/arqalabs/arqa/pkg/config"
	"github.com/arqalabs/arqa/pkg/embeddings"
	embeddingutils "github.com/arqalabs/arqa/pkg/embeddings/utils"
	"github.com/arqalabs/arqa/pkg/goodanswers"
	"github.com/arqalabs/arqa/pkg/ingest"
	"github.com/arqalabs/arqa/pkg/qmap"
	"github.com/arqalabs/arqa/pkg/vector"
	vectorutils "github.com/arqalabs/arqa/pkg/vector/utils"
)

// App holds the wired components for one command invocation.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Embedder embeddings.Embedder
	Store    vector.Driver
	Splitter *chunk.Splitter
	Map      *qmap.Map
	Good     *goodanswers.Store
	Pipeline *ingest.Pipeline
	Answerer *answer.Service
}

// New loads config through viper (defaults, config.toml, ARQA_ environment
// variables) and wires every component. Relative artifact paths default into
// the resolved dot directory.
func New(configDir string, logger *zap.Logger) (*App, error) {
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg, err := config.ConfigFromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	baseDir := cfger.GetTargetDir()

	storageDir := cfg.Storage.Dir
	if storageDir == "" {
		storageDir = baseDir
	}
	cachePath := cfg.Embedding.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(storageDir, "embedding_cache.json")
	}
	mapPath := cfg.Questions.MapPath
	if mapPath == "" {
		mapPath = filepath.Join(storageDir, "question_map.json")
	}
	answersPath := cfg.Answers.Path
	if answersPath == "" {
		answersPath = filepath.Join(storageDir, "good_answers.csv")
	}
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(storageDir, "arqa.db")
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   int(cfg.Embedding.Dimensions),
		Rate:         cfg.Embedding.Rate,
		CachePath:    cachePath,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building embedder: %w", err)
	}

	store, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.Storage.Provider,
		Dir:          storageDir,
		Collection:   cfg.Storage.Collection,
		SQLitePath:   sqlitePath,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       logger,
	})
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	splitter, err := chunk.NewSplitterForModel(cfg.Embedding.Model, chunk.Limits{
		MaxTokens:            cfg.Chunking.MaxTokens,
		FigureMaxTokens:      cfg.Chunking.FigureMaxTokens,
		MessageMaxTokens:     cfg.Chunking.MessageMaxTokens,
		CddMaxTokens:         cfg.Chunking.CddMaxTokens,
		ArxmlMaxTokens:       cfg.Chunking.ArxmlMaxTokens,
		MaxChunksPerDocument: cfg.Chunking.MaxChunksPerFile,
	})
	if err != nil {
		embedder.Close()
		store.Close()
		return nil, fmt.Errorf("building segmenter: %w", err)
	}

	qm, err := loadQuestionMap(mapPath, cfg.Questions.FuzzyCutoff, logger)
	if err != nil {
		embedder.Close()
		store.Close()
		return nil, err
	}

	good, err := goodanswers.Open(answersPath, embedder, logger)
	if err != nil {
		embedder.Close()
		store.Close()
		return nil, fmt.Errorf("opening good answers: %w", err)
	}

	pipeline := ingest.New(ingest.Options{
		Splitter:  splitter,
		Embedder:  embedder,
		Store:     store,
		MaxChunks: cfg.Chunking.MaxChunksPerFile,
		Logger:    logger,
	})

	answerer := answer.New(answer.Options{
		Map:           qm,
		Good:          good,
		Embedder:      embedder,
		Store:         store,
		TopK:          cfg.Answers.TopK,
		Threshold:     float32(cfg.Answers.Threshold),
		HistoryWindow: cfg.Questions.HistoryWindow,
		Logger:        logger,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Embedder: embedder,
		Store:    store,
		Splitter: splitter,
		Map:      qm,
		Good:     good,
		Pipeline: pipeline,
		Answerer: answerer,
	}, nil
}

// Close flushes and releases every component.
func (a *App) Close() error {
	embErr := a.Embedder.Close()
	storeErr := a.Store.Close()
	if embErr != nil {
		return embErr
	}
	return storeErr
}

// loadQuestionMap treats a missing map file as an empty map; resolution then
// passes every question through unchanged.
func loadQuestionMap(path string, cutoff float64, logger *zap.Logger) (*qmap.Map, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("no question map found", zap.String("path", path))
		return qmap.New(nil, cutoff), nil
	}
	m, err := qmap.Load(path, cutoff)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded question map", zap.String("path", path), zap.Int("entries", m.Len()))
	return m, nil
}
