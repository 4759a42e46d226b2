package niti

// Tokenizer abstracts the subword tokenizer shared by chunking and
// token-budget accounting. It must be the same tokenizer/vocabulary the
// embedding model sees, so budgets stay consistent across the pipeline.
// Implementations are stateless and safe for concurrent use.
type Tokenizer interface {
	// Encode converts text to a token-id sequence.
	Encode(text string) ([]int, error)
	// Decode converts a token-id sequence back to text.
	Decode(ids []int) (string, error)
}

// CountTokens returns the token count of text under t.
func CountTokens(t Tokenizer, text string) (int, error) {
	ids, err := t.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
