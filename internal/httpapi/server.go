package httpapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/amishk599/acadjobs/internal/ingest"
	"github.com/amishk599/acadjobs/internal/model"
)

// SourceInfo is the public view of a configured source.
type SourceInfo struct {
	Name         string `json:"name"`
	Organization string `json:"university"`
	Kind         string `json:"kind"`
	URL          string `json:"url,omitempty"`
	Location     string `json:"location,omitempty"`
}

// Options tunes list defaults.
type Options struct {
	DefaultLocation string
	DefaultLimit    int
	MaxLimit        int
}

// Server exposes stored postings over HTTP.
type Server struct {
	app      *fiber.App
	store    model.PostingStore
	dedup    *ingest.Deduplicator
	sources  []SourceInfo
	opts     Options
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer builds the fiber app and registers every route.
func NewServer(store model.PostingStore, dedup *ingest.Deduplicator, sources []SourceInfo, opts Options, logger *slog.Logger) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 200
	}

	s := &Server{
		store:    store,
		dedup:    dedup,
		sources:  sources,
		opts:     opts,
		validate: validator.New(),
		logger:   logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "acadjobs",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use(s.requestLogger())

	s.app.Get("/", s.root)
	api := s.app.Group("/api")
	api.Get("/jobs", s.listPostings)
	api.Get("/jobs/:id", s.getPosting)
	api.Post("/jobs", s.createPosting)
	api.Get("/stats", s.stats)
	api.Get("/sources", s.listSources)

	return s
}

// App returns the underlying fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("query api listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// requestLogger logs one line per request with its latency.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()
		c.Locals("requestid", requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		args := []any{
			"request_id", requestID,
			"method", c.Method(),
			"uri", c.OriginalURL(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			s.logger.Error("request failed", append(args, "error", err)...)
		case status >= 400:
			s.logger.Warn("request rejected", args...)
		default:
			s.logger.Debug("request served", args...)
		}
		return err
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return respondError(c, code, message)
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
