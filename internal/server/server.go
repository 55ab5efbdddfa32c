// Package server exposes the query engine over HTTP.
//
// Routes:
//
//	POST /variantQuery/variant-query        {"queryString": "..."}
//	POST /variantQuery/queryPattern         {"pattern": {...}, "type": "BFS"}
//	POST /variantQuery/queryLogicalPattern  {"pattern": {...}, "type": "BFS"}
//	POST /reload
//	GET  /healthz
//	GET  /metrics
//
// Query routes answer 200 with {"ids": [...]} or {"error": "...",
// "error_index": n}; only a malformed request body is a 400.
package server

import (
	"cmp"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/roach88/varq/internal/config"
	"github.com/roach88/varq/internal/engine"
)

// Server is the HTTP boundary over an engine.Service.
type Server struct {
	app              *fiber.App
	service          *engine.Service
	source           *CachedSource
	metrics          *Metrics
	logger           *slog.Logger
	defaultQueryType string
}

type textualRequest struct {
	QueryString string `json:"queryString"`
}

type patternRequest struct {
	Pattern json.RawMessage `json:"pattern"`
	Type    string          `json:"type"`
}

// New builds a server that evaluates against snapshots loaded from
// upstream. Call Reload before serving queries.
func New(upstream engine.SnapshotSource, caps engine.Capabilities, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		source:           NewCachedSource(upstream),
		logger:           logger,
		defaultQueryType: cfg.Evaluation.DefaultQueryType,
	}

	opts := []engine.ServiceOption{
		engine.WithLogger(logger),
		engine.WithTimeout(cfg.Evaluation.Timeout),
		engine.WithParallelism(cfg.Evaluation.Parallelism),
		engine.WithAllowUnknownNodes(cfg.Evaluation.AllowUnknownNodes),
	}
	if cfg.Metrics {
		s.metrics = NewMetrics()
		opts = append(opts, engine.WithObserver(s.metrics))
	}
	s.service = engine.NewService(s.source, caps, opts...)

	s.app = fiber.New()
	s.routes()
	return s
}

func (s *Server) routes() {
	q := s.app.Group("/variantQuery")
	q.Post("/variant-query", s.handleTextual)
	q.Post("/queryPattern", s.handlePattern)
	q.Post("/queryLogicalPattern", s.handleLogical)

	s.app.Post("/reload", s.handleReload)
	s.app.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}
}

// App returns the underlying fiber app, for tests and embedding.
func (s *Server) App() *fiber.App { return s.app }

// Reload loads a fresh snapshot from upstream.
func (s *Server) Reload(ctx context.Context) (int, error) {
	snap, err := s.source.Reload(ctx)
	n := 0
	if snap != nil {
		n = len(snap.Variants)
	}
	if s.metrics != nil {
		s.metrics.ObserveReload(n, err)
	}
	if err != nil {
		s.logger.Error("snapshot reload failed", "error", err)
		return 0, err
	}
	s.logger.Info("snapshot loaded", "variants", n, "activities", len(snap.Activities))
	return n, nil
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("server listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleTextual(c fiber.Ctx) error {
	var req textualRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	return c.JSON(s.service.EvaluateTextualQuery(c.Context(), req.QueryString))
}

func (s *Server) handlePattern(c fiber.Ctx) error {
	var req patternRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	qt := cmp.Or(req.Type, s.defaultQueryType)
	return c.JSON(s.service.EvaluatePatternQuery(c.Context(), req.Pattern, qt))
}

func (s *Server) handleLogical(c fiber.Ctx) error {
	var req patternRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	qt := cmp.Or(req.Type, s.defaultQueryType)
	return c.JSON(s.service.EvaluateLogicalExpression(c.Context(), req.Pattern, qt))
}

func (s *Server) handleReload(c fiber.Ctx) error {
	n, err := s.Reload(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"variants": n})
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	snap, err := s.source.Snapshot(c.Context())
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok", "variants": len(snap.Variants)})
}
