// Package server is the LifeOS REST API: structures, the entities scoped to
// them, and the derived views (navigation, stats, calendar) computed from both.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/lifeos/internal/health"
	"github.com/p-blackswan/lifeos/internal/metrics"
	"github.com/p-blackswan/lifeos/internal/models"
	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/requestid"
	"github.com/p-blackswan/lifeos/internal/store"
	"github.com/p-blackswan/lifeos/internal/structure"
	"github.com/p-blackswan/lifeos/internal/templates"
)

// Store is the persistence the API needs. *store.Store implements it.
type Store interface {
	ListStructures(ctx context.Context, userID string) ([]structure.Structure, error)
	GetStructure(ctx context.Context, userID, id string) (structure.Structure, error)
	CreateStructure(ctx context.Context, userID string, d structure.Draft) (structure.Structure, error)
	UpdateStructureLevels(ctx context.Context, userID, id string, levels []string) (structure.Structure, error)
	DeleteStructure(ctx context.Context, userID, id string) error

	ListHabits(ctx context.Context, userID, structureID string) ([]models.Habit, error)
	CreateHabit(ctx context.Context, userID string, in store.HabitInput) (models.Habit, error)
	ToggleHabitDate(ctx context.Context, userID, id, date string) (models.Habit, error)
	DeleteHabit(ctx context.Context, userID, id string) error

	ListGoals(ctx context.Context, userID, structureID string) ([]models.Goal, error)
	CreateGoal(ctx context.Context, userID string, in store.GoalInput) (models.Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, p store.GoalPatch) (models.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error

	ListEvents(ctx context.Context, userID, structureID string, r store.EventRange) ([]models.Event, error)
	CreateEvent(ctx context.Context, userID string, in store.EventInput) (models.Event, error)
	DeleteEvent(ctx context.Context, userID, id string) error

	ListNotes(ctx context.Context, userID, structureID string) ([]models.Note, error)
	CreateNote(ctx context.Context, userID string, in store.NoteInput) (models.Note, error)
	DeleteNote(ctx context.Context, userID, id string) error

	Counts(ctx context.Context) (store.Counts, error)
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr  string
	AuthConfig  AuthConfig
	RateLimit   RateLimitConfig
	CORSOrigins []string
	TLSCert     string
	TLSKey      string
	// Location is the default viewer timezone for date-based views.
	Location *time.Location
}

// Deps are the collaborators the server is wired with. Checker, Metrics,
// Templates, Items and Now are optional.
type Deps struct {
	Store     Store
	Checker   *health.Checker
	Metrics   *metrics.Metrics
	Templates *templates.Catalogue
	Items     []nav.Item
	Now       func() time.Time
}

// Server is the API Fiber application.
type Server struct {
	app      *fiber.App
	handlers *handlers
	limiter  *rateLimiter
	done     chan struct{}
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer creates and configures a new API server.
func NewServer(cfg ServerConfig, deps Deps, logger zerolog.Logger) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Templates == nil {
		deps.Templates = templates.Builtin()
	}
	if deps.Items == nil {
		deps.Items = nav.DefaultItems()
	}
	if deps.Checker == nil {
		deps.Checker = health.NewChecker(logger)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger, deps.Metrics),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})

	s := &Server{
		app:    app,
		done:   make(chan struct{}),
		logger: logger.With().Str("component", "api_server").Logger(),
		config: cfg,
		handlers: &handlers{
			store:     deps.Store,
			templates: deps.Templates,
			items:     deps.Items,
			metrics:   deps.Metrics,
			now:       deps.Now,
			location:  cfg.Location,
			startTime: deps.Now(),
			logger:    logger.With().Str("component", "handlers").Logger(),
		},
	}

	s.setupMiddleware(cfg, deps, logger)
	s.setupRoutes(deps)

	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig, deps Deps, logger zerolog.Logger) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware
	s.app.Use(func(c *fiber.Ctx) error {
		ctx, reqID := requestid.Accept(c.UserContext(), c.Get(requestid.Header))
		c.SetUserContext(ctx)
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if len(cfg.CORSOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		}))
	}

	if cfg.RateLimit.RPS > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit, deps.Now)
		go s.limiter.run(s.done)
		s.app.Use(s.limiter.middleware())
	}

	auth := newAuthenticator(cfg.AuthConfig, deps.Metrics, deps.Now, logger.With().Str("component", "auth").Logger())
	s.app.Use(auth.middleware())

	// Metrics + audit middleware
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		if deps.Metrics != nil {
			deps.Metrics.RecordRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
		}

		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Str("ip", c.IP()).
			Str("user", identity(c).UserID).
			Str("request_id", requestid.FromContext(c.UserContext())).
			Msg("api request")

		return err
	})
}

func (s *Server) setupRoutes(deps Deps) {
	h := s.handlers

	// Probe endpoints (no auth required, handled in auth middleware)
	s.app.Get("/healthz", adaptor.HTTPHandlerFunc(health.LivenessHandler()))
	s.app.Get("/readyz", adaptor.HTTPHandlerFunc(deps.Checker.ReadinessHandler()))
	if deps.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	v1 := s.app.Group("/api/v1")

	v1.Get("/structures", h.ListStructures)
	v1.Post("/structures", h.CreateStructure)
	v1.Get("/structures/:id", h.GetStructure)
	v1.Put("/structures/:id/levels", h.UpdateStructureLevels)
	v1.Delete("/structures/:id", h.DeleteStructure)
	v1.Get("/structure-templates", h.ListTemplates)

	v1.Get("/navigation", h.Navigation)
	v1.Get("/routes/resolve", h.ResolveRoute)

	v1.Get("/habits", h.ListHabits)
	v1.Post("/habits", h.CreateHabit)
	v1.Get("/habits/stats", h.HabitStats)
	v1.Post("/habits/:id/toggle", h.ToggleHabit)
	v1.Delete("/habits/:id", h.DeleteHabit)

	v1.Get("/goals", h.ListGoals)
	v1.Post("/goals", h.CreateGoal)
	v1.Get("/goals/progress", h.GoalProgress)
	v1.Patch("/goals/:id", h.UpdateGoal)
	v1.Delete("/goals/:id", h.DeleteGoal)

	v1.Get("/events", h.ListEvents)
	v1.Post("/events", h.CreateEvent)
	v1.Delete("/events/:id", h.DeleteEvent)
	v1.Get("/calendar", h.Calendar)

	v1.Get("/notes", h.ListNotes)
	v1.Post("/notes", h.CreateNote)
	v1.Delete("/notes/:id", h.DeleteNote)

	v1.Get("/me", h.Me)
	v1.Get("/admin/stats", requireRole(nav.RoleAdmin), h.AdminStats)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	s.logger.Info().Str("addr", addr).Msg("API server starting")

	if s.config.TLSCert != "" && s.config.TLSKey != "" {
		return s.app.ListenTLS(addr, s.config.TLSCert, s.config.TLSKey)
	}
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("API server shutting down")
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.app.ShutdownWithContext(ctx)
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger, m *metrics.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		title := utils.StatusMessage(code)
		detail := err.Error()
		errType := "request_error"
		if code == fiber.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("unhandled error")
			if m != nil {
				m.RecordError("api", "internal")
			}
			// Don't leak internal details
			detail = "An internal error occurred"
			errType = "internal_error"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     errType,
			Title:    title,
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
