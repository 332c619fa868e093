package config

const (
	defaultStorageProvider = "flat"
	defaultCollection      = "autosar_docs"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536
	defaultEmbeddingRate       = 10.0

	defaultMaxTokens        = 500
	defaultFigureMaxTokens  = 150
	defaultMessageMaxTokens = 200
	defaultCddMaxTokens     = 180
	defaultArxmlMaxTokens   = 200

	defaultFuzzyCutoff   = 0.6
	defaultHistoryWindow = 3

	defaultAnswerThreshold = 0.8
	defaultTopK            = 5
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider:   defaultStorageProvider,
			Collection: defaultCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
			Rate:       defaultEmbeddingRate,
		},
		Chunking: ChunkingConfig{
			MaxTokens:        defaultMaxTokens,
			FigureMaxTokens:  defaultFigureMaxTokens,
			MessageMaxTokens: defaultMessageMaxTokens,
			CddMaxTokens:     defaultCddMaxTokens,
			ArxmlMaxTokens:   defaultArxmlMaxTokens,
		},
		Questions: QuestionsConfig{
			FuzzyCutoff:   defaultFuzzyCutoff,
			HistoryWindow: defaultHistoryWindow,
		},
		Answers: AnswersConfig{
			Threshold: defaultAnswerThreshold,
			TopK:      defaultTopK,
		},
	}
}
