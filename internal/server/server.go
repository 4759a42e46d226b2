// Package server exposes the query path over HTTP: POST /ask answers
// questions, POST /documents re-ingests the corpus, GET /healthz reports
// store status.
package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	niti "github.com/farhanr/niti"
	"github.com/farhanr/niti/ingest"
)

// IngestFunc runs a full corpus ingestion. Wired in by the caller so the
// server stays agnostic of document locations.
type IngestFunc func(ctx context.Context) (ingest.Result, error)

// Option configures a Server.
type Option func(*Server)

// WithIngestFunc enables POST /documents.
func WithIngestFunc(fn IngestFunc) Option {
	return func(s *Server) { s.ingestFn = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server wires the answerer and store into a fiber app.
type Server struct {
	answerer *niti.Answerer
	store    niti.VectorStore
	ingestFn IngestFunc
	logger   *slog.Logger
	app      *fiber.App
}

// New builds the server and registers its routes.
func New(answerer *niti.Answerer, store niti.VectorStore, opts ...Option) (*Server, error) {
	if answerer == nil || store == nil {
		return nil, &niti.ErrConfig{Message: "answerer and store are required"}
	}
	s := &Server{
		answerer: answerer,
		store:    store,
		logger:   slog.Default(),
		app:      fiber.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app.Get("/healthz", s.health)
	s.app.Post("/ask", s.ask)
	s.app.Post("/documents", s.ingestDocuments)
	return s, nil
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c fiber.Ctx) error {
	count, err := s.store.Count(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "chunks": count})
}

func (s *Server) ask(c fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
		Language string `json:"language"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	reqID := niti.NewID()
	answer, err := s.answerer.AskInLanguage(c.Context(), body.Question, body.Language)
	if err != nil {
		status := errorStatus(err)
		s.logger.Error("ask failed", "request_id", reqID, "error", err, "status", status)
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	s.logger.Info("question answered", "request_id", reqID, "chunks", answer.Context.ChunkCount)

	sources := make([]fiber.Map, len(answer.Sources))
	for i, src := range answer.Sources {
		sources[i] = fiber.Map{
			"source_file": src.SourceFile,
			"chunk_index": src.ChunkIndex,
		}
	}
	return c.JSON(fiber.Map{
		"answer":         answer.Text,
		"sources":        sources,
		"context_chunks": answer.Context.ChunkCount,
		"context_tokens": answer.Context.TokenCount,
	})
}

func (s *Server) ingestDocuments(c fiber.Ctx) error {
	if s.ingestFn == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "ingestion not configured"})
	}
	res, err := s.ingestFn(c.Context())
	if err != nil {
		status := errorStatus(err)
		s.logger.Error("ingest failed", "error", err, "status", status)
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"documents": res.Documents,
		"chunks":    res.Chunks,
		"dimension": res.Dimension,
	})
}

// errorStatus maps the error taxonomy to HTTP: caller mistakes are 400,
// upstream failures are 502, everything else is 500.
func errorStatus(err error) int {
	var cfgErr *niti.ErrConfig
	if errors.As(err, &cfgErr) {
		return fiber.StatusBadRequest
	}
	var adapterErr *niti.ErrAdapter
	var retrErr *niti.ErrRetrieval
	var complErr *niti.ErrCompletion
	var httpErr *niti.ErrHTTP
	if errors.As(err, &adapterErr) || errors.As(err, &retrErr) ||
		errors.As(err, &complErr) || errors.As(err, &httpErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
