// Package tiktoken adapts the tiktoken BPE tokenizer family to the
// niti.Tokenizer contract. The encoding must match the one the embedding
// model was trained with, otherwise chunk boundaries and token budgets
// drift from what the model actually sees.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	niti "github.com/farhanr/niti"
)

// DefaultEncoding is the cl100k_base BPE used by recent OpenAI embedding
// and chat models.
const DefaultEncoding = "cl100k_base"

// Tokenizer wraps one tiktoken encoding. Safe for concurrent use.
type Tokenizer struct {
	enc  *tiktoken.Tiktoken
	name string
}

// New returns a tokenizer for a named encoding, e.g. "cl100k_base".
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("load encoding %q: %v", encoding, err)}
	}
	return &Tokenizer{enc: enc, name: encoding}, nil
}

// ForModel returns the tokenizer registered for a model name, e.g.
// "text-embedding-3-small".
func ForModel(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("no encoding for model %q: %v", model, err)}
	}
	return &Tokenizer{enc: enc, name: model}, nil
}

// Name returns the encoding or model name this tokenizer was built from.
func (t *Tokenizer) Name() string { return t.name }

// Encode converts text to BPE token ids.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

// Decode converts BPE token ids back to text.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	return t.enc.Decode(ids), nil
}

var _ niti.Tokenizer = (*Tokenizer)(nil)
