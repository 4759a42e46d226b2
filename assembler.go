package niti

import "strings"

const (
	// NoContextSentinel is the assembled text when retrieval produced nothing
	// usable. Callers compare against it to decide whether to ground the
	// prompt in retrieved context at all.
	NoContextSentinel = "No relevant data found in the database."

	// chunkDelimiter joins chunks in the assembled context.
	chunkDelimiter = "\n\n"

	// fallbackChunkTokens is the assumed cost of a chunk whose text the
	// tokenizer rejects. Keeps assembly going instead of failing the query.
	fallbackChunkTokens = 100

	// DefaultContextBudget caps the assembled context size in tokens.
	DefaultContextBudget = 3000
)

// AssembleContext builds the grounding text for a completion call from
// ranked retrieval results. Chunks are taken in rank order while the running
// token count stays within budget; the first exactly-measured chunk that
// would overflow stops assembly. A chunk the tokenizer cannot encode is
// charged fallbackChunkTokens and appended as long as the running count has
// not already exceeded the budget; assembly continues past it either way.
// Duplicate chunk texts are skipped, keeping the earliest rank.
//
// An empty result set, or a budget nothing fits into, yields the sentinel
// with zero counts.
func AssembleContext(tok Tokenizer, results []RetrievalResult, budget int) (AssembledContext, error) {
	if budget <= 0 {
		return AssembledContext{}, &ErrConfig{Message: "context budget must be positive"}
	}

	var (
		parts []string
		total int
		seen  = make(map[string]struct{}, len(results))
	)
	for _, r := range results {
		if _, dup := seen[r.Content]; dup {
			continue
		}
		n, err := CountTokens(tok, r.Content)
		if err != nil {
			if total <= budget {
				seen[r.Content] = struct{}{}
				parts = append(parts, r.Content)
				total += fallbackChunkTokens
			}
			continue
		}
		if total+n > budget {
			break
		}
		seen[r.Content] = struct{}{}
		parts = append(parts, r.Content)
		total += n
	}

	if len(parts) == 0 {
		return AssembledContext{Text: NoContextSentinel}, nil
	}
	return AssembledContext{
		Text:       strings.Join(parts, chunkDelimiter),
		ChunkCount: len(parts),
		TokenCount: total,
	}, nil
}
