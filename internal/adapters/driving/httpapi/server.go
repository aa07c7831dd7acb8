package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/custodia-labs/docrag/internal/logger"
)

// DefaultBodyLimit bounds upload size.
const DefaultBodyLimit = 64 << 20

// TenantHeader carries the tenant when a request has no tenant field.
const TenantHeader = "X-Tenant"

// Server is the HTTP surface for docrag.
type Server struct {
	ports *Ports
	app   *fiber.App
}

// Option configures a Server.
type Option func(*fiber.Config)

// WithBodyLimit sets the maximum request body size in bytes.
func WithBodyLimit(n int) Option {
	return func(cfg *fiber.Config) {
		if n > 0 {
			cfg.BodyLimit = n
		}
	}
}

// WithTimeouts sets the read and write timeouts. Questions can take as
// long as the generation timeout, so the write timeout should exceed it.
func WithTimeouts(read, write time.Duration) Option {
	return func(cfg *fiber.Config) {
		cfg.ReadTimeout = read
		cfg.WriteTimeout = write
	}
}

// NewServer creates a server with routes registered.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	cfg := fiber.Config{
		AppName:   "docrag",
		BodyLimit: DefaultBodyLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		ports: ports,
		app:   fiber.New(cfg),
	}
	s.app.Use(recover.New())
	s.app.Use(requestLogger())
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	s.app.Post("/upload", s.upload)
	s.app.Post("/ask", s.ask)

	files := s.app.Group("/files")
	files.Get("/", s.listFiles)
	files.Get("/link", s.fileLink)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func requestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		logger.Debug("http request",
			"method", method,
			"path", path,
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}
