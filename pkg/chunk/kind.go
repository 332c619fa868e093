// Package chunk splits document text into embedding-sized chunks.
//
// Paragraph-kind text is first segmented at heading boundaries (markdown
// hashes, numeric outline markers, underlined titles), then every segment is
// cut into windows that fit the embedding model's token budget. Structured
// kinds (CAN messages, diagnostic and AUTOSAR XML elements, figure text)
// arrive already unit-scoped and skip heading detection.
package chunk

// Kind classifies the semantic origin of a piece of document text and selects
// its token budget.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindFigure    Kind = "figure"
	KindMessage   Kind = "message"
	KindSignal    Kind = "signal"
	KindCdd       Kind = "cdd_element"
	KindArxml     Kind = "arxml_element"
)

// Limits holds the per-kind token budgets and the per-document chunk cap.
// Per-kind budgets are clamped to MaxTokens; a zero budget falls back to it.
type Limits struct {
	MaxTokens        int
	FigureMaxTokens  int
	MessageMaxTokens int
	CddMaxTokens     int
	ArxmlMaxTokens   int

	// MaxChunksPerDocument caps the chunk count for one document.
	// Zero means unlimited.
	MaxChunksPerDocument int
}

// DefaultLimits returns the stock token budgets.
func DefaultLimits() Limits {
	return Limits{
		MaxTokens:        500,
		FigureMaxTokens:  150,
		MessageMaxTokens: 200,
		CddMaxTokens:     180,
		ArxmlMaxTokens:   200,
	}
}

// budgetFor resolves the token budget for a kind, never exceeding MaxTokens.
func (l Limits) budgetFor(kind Kind) int {
	budget := l.MaxTokens
	switch kind {
	case KindFigure:
		budget = l.FigureMaxTokens
	case KindMessage, KindSignal:
		budget = l.MessageMaxTokens
	case KindCdd:
		budget = l.CddMaxTokens
	case KindArxml:
		budget = l.ArxmlMaxTokens
	}
	if budget <= 0 || budget > l.MaxTokens {
		budget = l.MaxTokens
	}
	return budget
}
