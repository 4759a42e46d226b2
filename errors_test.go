package niti

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config", &ErrConfig{Message: "bad budget"}, "bad budget"},
		{"consistency", &ErrConsistency{Message: "source map truncated"}, "source map truncated"},
		{"dimension", &ErrDimensionMismatch{Want: 1536, Got: 384}, "1536"},
		{"adapter", &ErrAdapter{Adapter: "embedding", Message: "api down"}, "embedding"},
		{"retrieval", &ErrRetrieval{Message: "collection missing"}, "collection missing"},
		{"completion", &ErrCompletion{Provider: "openai", Message: "timeout"}, "openai"},
		{"http", &ErrHTTP{Status: 429, Body: "rate limited"}, "429"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := tt.err.Error(); !strings.Contains(msg, tt.want) {
				t.Errorf("Error() = %q, want substring %q", msg, tt.want)
			}
		})
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	inner := &ErrDimensionMismatch{Want: 3, Got: 2}
	wrapped := fmt.Errorf("vector 4: %w", inner)

	var dimErr *ErrDimensionMismatch
	if !errors.As(wrapped, &dimErr) {
		t.Fatal("errors.As failed through fmt.Errorf wrapping")
	}
	if dimErr.Want != 3 || dimErr.Got != 2 {
		t.Errorf("unwrapped = %+v", dimErr)
	}
}
