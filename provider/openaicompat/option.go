package openaicompat

import (
	"log/slog"
	"net/http"
)

// Option configures a Provider or Embedding client.
type Option func(*settings)

type settings struct {
	name        string
	client      *http.Client
	temperature *float64
	maxTokens   *int
	headers     map[string]string
	logger      *slog.Logger
}

func newSettings(name string) settings {
	return settings{
		name:    name,
		client:  &http.Client{},
		headers: map[string]string{},
		logger:  nopLogger,
	}
}

// WithName overrides the provider name reported in errors and logs.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithTemperature sets the sampling temperature on every chat request.
// Zero is a valid value and is sent explicitly.
func WithTemperature(t float64) Option {
	return func(s *settings) { s.temperature = &t }
}

// WithMaxTokens caps the completion length on every chat request.
func WithMaxTokens(n int) Option {
	return func(s *settings) { s.maxTokens = &n }
}

// WithHeader adds a header to every request. OpenRouter uses HTTP-Referer
// and X-Title for app attribution.
func WithHeader(key, value string) Option {
	return func(s *settings) { s.headers[key] = value }
}

// WithReferer sets the OpenRouter HTTP-Referer attribution header.
func WithReferer(url string) Option {
	return WithHeader("HTTP-Referer", url)
}

// WithTitle sets the OpenRouter X-Title attribution header.
func WithTitle(title string) Option {
	return WithHeader("X-Title", title)
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}
