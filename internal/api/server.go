package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"growthquest/internal/engine"
	"growthquest/internal/metrics"
)

// MaxBodyBytes limits request bodies. It leaves room for JSON escaping around
// the largest analysis text the parsers accept.
const MaxBodyBytes = 4 * engine.MaxAIOutputBytes

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	ListenAddr  string
	CORSOrigins string
}

// Server is the HTTP API Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer creates and configures a new API server. m may be nil.
func NewServer(cfg ServerConfig, svc *engine.Service, m *metrics.Metrics, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api").Logger()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             MaxBodyBytes,
		ErrorHandler:          errorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		app:      app,
		handlers: NewHandlers(svc, logger),
		logger:   logger,
		config:   cfg,
	}
	s.setupMiddleware(cfg, m)
	s.setupRoutes(m)
	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig, m *metrics.Metrics) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware
	s.app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
			AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		}))
	}

	// Audit and timing. Errors are rendered here so the recorded status is final.
	s.app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		path := c.Path()
		status := c.Response().StatusCode()
		if m != nil {
			m.ObserveHTTP(c.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
		}
		if path == "/healthz" || path == "/metrics" {
			return nil
		}
		s.logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("request_id", requestID(c)).
			Msg("api request")
		return nil
	})
}

func (s *Server) setupRoutes(m *metrics.Metrics) {
	h := s.handlers
	s.app.Get("/healthz", h.Liveness)

	if m != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	v1 := s.app.Group("/api/v1")
	v1.Post("/users", h.CreateUser)

	u := v1.Group("/users/:id")
	u.Get("/", h.GetUser)
	u.Post("/questionnaire", h.SubmitQuestionnaire)
	u.Post("/analysis", h.RunAnalysis)
	u.Post("/analysis/raw", h.IngestAnalysis)
	u.Get("/stats", h.GetStats)
	u.Post("/level-up", h.LevelUp)
	u.Get("/events", h.RecentEvents)
	u.Get("/achievements", h.Achievements)

	u.Get("/quests", h.ListQuests)
	u.Post("/quests", h.CreateQuest)
	u.Post("/quests/generate", h.GenerateQuests)
	u.Patch("/quests/:questID/complete", h.CompleteQuest)
	u.Delete("/quests/:questID", h.DeleteQuest)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info().Str("addr", addr).Msg("API server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("API server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("request_id").(string); ok {
		return id
	}
	return ""
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		p := problemFor(err)
		p.Instance = c.Path()

		ev := logger.Warn()
		if p.Status >= fiber.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Err(err).
			Int("status", p.Status).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Str("request_id", requestID(c)).
			Msg("request failed")

		return c.Status(p.Status).JSON(p)
	}
}

func problemFor(err error) ProblemDetail {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ProblemDetail{Type: "http_error", Title: utils.StatusMessage(fe.Code), Status: fe.Code, Detail: fe.Message}
	}

	p := ProblemDetail{Detail: err.Error()}
	switch engine.KindOf(err) {
	case engine.KindValidation:
		p.Type, p.Title, p.Status = "validation", "Bad Request", fiber.StatusBadRequest
	case engine.KindNotFound:
		p.Type, p.Title, p.Status = "not_found", "Not Found", fiber.StatusNotFound
	case engine.KindConflict:
		p.Type, p.Title, p.Status = "conflict", "Conflict", fiber.StatusConflict
		var lerr engine.LevelUpError
		if errors.As(err, &lerr) {
			p.Reason = "level_up_rejected"
			for _, u := range lerr.Unmet {
				p.Unmet = append(p.Unmet, string(u))
			}
		}
		var cerr engine.CapacityError
		if errors.As(err, &cerr) {
			p.Reason = "quest_limit"
		}
	case engine.KindUpstream:
		p.Type, p.Title, p.Status = "upstream_analysis", "Bad Gateway", fiber.StatusBadGateway
	case engine.KindPersistence:
		p.Type, p.Title, p.Status = "persistence", "Internal Server Error", fiber.StatusInternalServerError
		p.Detail = "A storage error occurred"
	default:
		p.Type, p.Title, p.Status = "internal_error", "Internal Server Error", fiber.StatusInternalServerError
		p.Detail = "An internal error occurred"
	}
	return p
}
