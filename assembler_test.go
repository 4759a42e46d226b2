package niti

import (
	"errors"
	"strings"
	"testing"
)

// wordTokenizer counts whitespace-separated words as tokens. Texts listed in
// failOn make Encode fail, modeling inputs the real tokenizer rejects.
type wordTokenizer struct {
	failOn map[string]bool
}

func (w *wordTokenizer) Encode(text string) ([]int, error) {
	if w.failOn[text] {
		return nil, errors.New("unencodable input")
	}
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	return ids, nil
}

func (w *wordTokenizer) Decode(ids []int) (string, error) {
	return strings.Repeat("x ", len(ids)), nil
}

func results(texts ...string) []RetrievalResult {
	out := make([]RetrievalResult, len(texts))
	for i, t := range texts {
		out[i] = RetrievalResult{
			Content:  t,
			Metadata: ChunkMetadata{SourceFile: "doc.pdf", ChunkIndex: i},
			Distance: float32(i) * 0.1,
		}
	}
	return out
}

func TestAssembleContextJoinsInRankOrder(t *testing.T) {
	tok := &wordTokenizer{}
	got, err := AssembleContext(tok, results("alpha beta", "gamma", "delta epsilon zeta"), 100)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	want := "alpha beta\n\ngamma\n\ndelta epsilon zeta"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if got.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, want 3", got.ChunkCount)
	}
	if got.TokenCount != 6 {
		t.Errorf("TokenCount = %d, want 6", got.TokenCount)
	}
}

func TestAssembleContextStopsAtBudget(t *testing.T) {
	tok := &wordTokenizer{}
	// 3 + 3 = 6 fits; the third chunk (3 tokens) would exceed 8.
	got, err := AssembleContext(tok, results("a b c", "d e f", "g h i"), 8)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if got.ChunkCount != 2 {
		t.Errorf("ChunkCount = %d, want 2", got.ChunkCount)
	}
	if got.TokenCount != 6 {
		t.Errorf("TokenCount = %d, want 6", got.TokenCount)
	}
	if strings.Contains(got.Text, "g h i") {
		t.Errorf("overflowing chunk included: %q", got.Text)
	}
}

func TestAssembleContextEmptyResultsYieldsSentinel(t *testing.T) {
	got, err := AssembleContext(&wordTokenizer{}, nil, 3000)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if got.Text != NoContextSentinel {
		t.Errorf("Text = %q, want sentinel", got.Text)
	}
	if got.ChunkCount != 0 || got.TokenCount != 0 {
		t.Errorf("counts = (%d, %d), want zero", got.ChunkCount, got.TokenCount)
	}
}

func TestAssembleContextNothingFitsYieldsSentinel(t *testing.T) {
	got, err := AssembleContext(&wordTokenizer{}, results("a b c d e"), 3)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if got.Text != NoContextSentinel {
		t.Errorf("Text = %q, want sentinel", got.Text)
	}
}

func TestAssembleContextFallbackOnEncodeFailure(t *testing.T) {
	tok := &wordTokenizer{failOn: map[string]bool{"broken chunk": true}}
	got, err := AssembleContext(tok, results("first part", "broken chunk", "last part"), 3000)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if got.ChunkCount != 3 {
		t.Fatalf("ChunkCount = %d, want 3", got.ChunkCount)
	}
	// 2 exact + 100 assumed + 2 exact.
	if got.TokenCount != 104 {
		t.Errorf("TokenCount = %d, want 104", got.TokenCount)
	}
}

func TestAssembleContextFallbackAppendsUntilBudgetExceeded(t *testing.T) {
	tok := &wordTokenizer{failOn: map[string]bool{"broken chunk": true}}
	// Budget 10: the running count is still within budget when the
	// unencodable chunk arrives, so it is appended at the 100-token
	// estimate. The count now exceeds the budget, shutting out the rest.
	got, err := AssembleContext(tok, results("first part", "broken chunk", "last part"), 10)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if got.ChunkCount != 2 {
		t.Fatalf("ChunkCount = %d, want 2", got.ChunkCount)
	}
	if !strings.Contains(got.Text, "broken chunk") {
		t.Errorf("unencodable chunk missing: %q", got.Text)
	}
	if strings.Contains(got.Text, "last part") {
		t.Errorf("chunk included past an exhausted budget: %q", got.Text)
	}
	if got.TokenCount != 102 {
		t.Errorf("TokenCount = %d, want 102", got.TokenCount)
	}
}

func TestAssembleContextFallbackSkipsOnceOverBudget(t *testing.T) {
	tok := &wordTokenizer{failOn: map[string]bool{
		"broken one":   true,
		"broken two":   true,
		"broken three": true,
	}}
	// Budget 150: first two estimates land at 100 and 200 tokens; the third
	// arrives with the count already over budget and is skipped, but the
	// loop keeps going rather than erroring out.
	got, err := AssembleContext(tok, results("broken one", "broken two", "broken three"), 150)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if got.ChunkCount != 2 {
		t.Fatalf("ChunkCount = %d, want 2", got.ChunkCount)
	}
	if strings.Contains(got.Text, "broken three") {
		t.Errorf("chunk included past an exhausted budget: %q", got.Text)
	}
}

func TestAssembleContextDeduplicatesByText(t *testing.T) {
	got, err := AssembleContext(&wordTokenizer{}, results("same text", "same text", "other"), 3000)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if got.ChunkCount != 2 {
		t.Errorf("ChunkCount = %d, want 2", got.ChunkCount)
	}
	if got.Text != "same text\n\nother" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestAssembleContextRejectsNonPositiveBudget(t *testing.T) {
	_, err := AssembleContext(&wordTokenizer{}, results("a"), 0)
	var cfgErr *ErrConfig
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ErrConfig", err)
	}
}

func TestCountTokens(t *testing.T) {
	n, err := CountTokens(&wordTokenizer{}, "one two three")
	if err != nil {
		t.Fatalf("CountTokens: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
}
