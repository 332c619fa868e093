package chunk

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Heading markers recognized in paragraph-kind text. Numeric outline markers
// ("7", "7.2", "7.2.1") are how AUTOSAR specifications structure their
// chapters; markdown hashes and underlined titles cover the rest of the
// corpus. These are heuristics tuned against the document set, the budgets
// around them are configuration.
var (
	mdHeadingRe  = regexp.MustCompile(`^#{1,6} \S`)
	numHeadingRe = regexp.MustCompile(`^\d+(\.\d+)* +\S`)
	underlineRe  = regexp.MustCompile(`^[-=]{3,}$`)

	wsRe = regexp.MustCompile(`\s+`)
)

// Splitter produces token-bounded chunks from raw document text.
type Splitter struct {
	tok    Tokenizer
	limits Limits
}

// NewSplitter creates a Splitter cutting chunks on the given tokenizer's
// token boundaries.
func NewSplitter(tok Tokenizer, limits Limits) (*Splitter, error) {
	if tok == nil {
		return nil, errors.New("tokenizer is required")
	}
	if limits.MaxTokens <= 0 {
		return nil, errors.New("limits.MaxTokens must be positive")
	}
	return &Splitter{tok: tok, limits: limits}, nil
}

// NewSplitterForModel creates a Splitter backed by the named embedding
// model's tiktoken encoding.
func NewSplitterForModel(model string, limits Limits) (*Splitter, error) {
	tok, err := NewTokenizerForModel(model)
	if err != nil {
		return nil, err
	}
	return NewSplitter(tok, limits)
}

// Split cuts text into whitespace-normalized chunks of at most the kind's
// token budget. Paragraph text is segmented at heading boundaries first;
// structured kinds are taken as a single segment. The second return value is
// the number of chunks dropped by the per-document cap.
//
// Empty or whitespace-only input yields no chunks. A segment holding only a
// heading still yields a chunk; headings carry semantic signal.
func (s *Splitter) Split(text string, kind Kind) ([]string, int) {
	var segments []string
	if kind == KindParagraph {
		segments = headingSegments(text)
	} else {
		segments = []string{text}
	}

	budget := s.limits.budgetFor(kind)

	var chunks []string
	for _, segment := range segments {
		normalized := normalizeWhitespace(segment)
		if normalized == "" {
			continue
		}
		chunks = append(chunks, s.tokenWindows(normalized, budget)...)
	}

	dropped := 0
	if max := s.limits.MaxChunksPerDocument; max > 0 && len(chunks) > max {
		dropped = len(chunks) - max
		chunks = chunks[:max]
	}

	return chunks, dropped
}

// tokenWindows cuts text at the tokenizer's native boundaries into
// non-overlapping windows of at most budget tokens, preserving order.
func (s *Splitter) tokenWindows(text string, budget int) []string {
	tokens := s.tok.Encode(text)

	var out []string
	for start := 0; start < len(tokens); start += budget {
		end := start + budget
		if end > len(tokens) {
			end = len(tokens)
		}
		decoded := strings.TrimSpace(s.tok.Decode(tokens[start:end]))
		if decoded != "" {
			out = append(out, decoded)
		}
	}
	return out
}

// headingSegments splits raw text into heading-bounded segments. Each
// detected heading starts a new segment containing the heading line itself;
// text before the first heading forms its own segment.
func headingSegments(text string) []string {
	lines := strings.Split(text, "\n")

	var segments []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, strings.Join(current, "\n"))
			current = nil
		}
	}

	for i, line := range lines {
		isHeading := mdHeadingRe.MatchString(line) || numHeadingRe.MatchString(line)

		// Underline-style: a capitalized title line followed by a rule of
		// dashes or equals signs.
		if !isHeading && i+1 < len(lines) &&
			underlineRe.MatchString(strings.TrimSpace(lines[i+1])) &&
			startsUpper(line) {
			isHeading = true
		}

		if isHeading {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return segments
}

func startsUpper(line string) bool {
	for _, r := range line {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.IsUpper(r)
	}
	return false
}

// normalizeWhitespace collapses all whitespace runs (including newlines) to
// single spaces and trims the ends.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
}
