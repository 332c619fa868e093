package chunk

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer encodes text into the embedding model's native token IDs and back.
// Window boundaries fall on these tokens so no chunk can exceed the model's
// effective context.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// tiktokenTokenizer adapts tiktoken's BPE encoder to the Tokenizer interface.
type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizerForModel returns a Tokenizer matching the named embedding model.
func NewTokenizerForModel(model string) (Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer for model %q: %w", model, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
