// Package qmap maps free-form user questions onto canonical phrasings. It is
// a two-stage heuristic: a context rewrite that makes short or pronoun-led
// follow-ups self-contained, then a best-effort resolution against a static
// map of canonical questions and their aliases.
package qmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

const DefaultFuzzyCutoff = 0.6

// pronoun-led follow-ups lean on a prior turn for their referent.
var pronouns = map[string]struct{}{
	"it": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "they": {}, "them": {}, "its": {},
}

var wsRe = regexp.MustCompile(`\s+`)

// Entry is one canonical question with its accepted surface forms.
type Entry struct {
	Key       string
	Canonical string
	Aliases   []string
}

// Map resolves questions against entries in their definition order.
type Map struct {
	entries []Entry
	cutoff  float64
}

// Load reads a question map file: a JSON object of
// {key: {canonical, aliases[]}}. Definition order is preserved so matching
// is deterministic.
func Load(path string, cutoff float64) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question map %s: %w", path, err)
	}
	m, err := Parse(data, cutoff)
	if err != nil {
		return nil, fmt.Errorf("parsing question map %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes map entries from JSON, keeping document order.
func Parse(data []byte, cutoff float64) (*Map, error) {
	if cutoff <= 0 {
		cutoff = DefaultFuzzyCutoff
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidMap)
	}

	m := &Map{cutoff: cutoff}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key", ErrInvalidMap)
		}

		var body struct {
			Canonical string   `json:"canonical"`
			Aliases   []string `json:"aliases"`
		}
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrInvalidMap, key, err)
		}
		if body.Canonical == "" {
			return nil, fmt.Errorf("%w: entry %q has no canonical form", ErrInvalidMap, key)
		}

		m.entries = append(m.entries, Entry{
			Key:       key,
			Canonical: body.Canonical,
			Aliases:   body.Aliases,
		})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	return m, nil
}

// New builds a map from entries directly, for callers that assemble entries
// in code.
func New(entries []Entry, cutoff float64) *Map {
	if cutoff <= 0 {
		cutoff = DefaultFuzzyCutoff
	}
	return &Map{entries: entries, cutoff: cutoff}
}

// Len reports the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Rewrite makes a follow-up question self-contained by prepending recent
// history. The trigger is purely lexical: the first word is one of the fixed
// pronoun set, or the question has fewer than five words. Only prior
// questions are consulted, never answers. An empty history leaves the
// question unchanged apart from whitespace normalization.
func Rewrite(question string, history []string, window int) string {
	q := normalizeWS(question)
	if q == "" || len(history) == 0 {
		return q
	}

	words := strings.Fields(q)
	_, pronounLed := pronouns[strings.ToLower(words[0])]
	if !pronounLed && len(words) >= 5 {
		return q
	}

	start := 0
	if window > 0 && len(history) > window {
		start = len(history) - window
	}
	recent := make([]string, 0, len(history)-start)
	for _, h := range history[start:] {
		recent = append(recent, normalizeWS(h))
	}

	return fmt.Sprintf("In context of: %s, %s", strings.Join(recent, " / "), q)
}

// Resolve maps a question to its canonical phrasing: exact canonical match,
// then exact alias match, then fuzzy match over all pooled forms at the
// configured cutoff. No match returns the input unchanged, resolution never
// fails hard. Matching is case- and whitespace-insensitive; the returned
// canonical keeps its original casing, so Resolve is idempotent.
func (m *Map) Resolve(question string) string {
	q := normalizeWS(question)
	key := strings.ToLower(q)
	if key == "" {
		return q
	}

	for _, e := range m.entries {
		if strings.ToLower(normalizeWS(e.Canonical)) == key {
			return e.Canonical
		}
	}

	for _, e := range m.entries {
		for _, alias := range e.Aliases {
			if strings.ToLower(normalizeWS(alias)) == key {
				return e.Canonical
			}
		}
	}

	params := levenshtein.NewParams()
	best := 0.0
	bestCanonical := ""
	for _, e := range m.entries {
		forms := append([]string{e.Canonical}, e.Aliases...)
		for _, form := range forms {
			score := levenshtein.Similarity(key, strings.ToLower(normalizeWS(form)), params)
			if score > best {
				best = score
				bestCanonical = e.Canonical
			}
		}
	}
	if best >= m.cutoff {
		return bestCanonical
	}

	return q
}

func normalizeWS(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
