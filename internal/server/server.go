package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/visagepay/visagepay/internal/biometric"
	"github.com/visagepay/visagepay/internal/config"
	"github.com/visagepay/visagepay/internal/face"
	"github.com/visagepay/visagepay/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// Deps carries the externally constructed dependencies the server wires in.
type Deps struct {
	DB         *pgxpool.Pool
	Cache      *redis.Client
	Logger     *slog.Logger
	Normalizer face.Normalizer
	Matcher    face.Matcher
	Templates  biometric.TemplateStore
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, deps Deps) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    8 << 20, // face captures arrive as multipart uploads
	})

	if err := routes.Setup(app, routes.Deps{
		Cfg:        cfg,
		DB:         deps.DB,
		Cache:      deps.Cache,
		Logger:     deps.Logger,
		Normalizer: deps.Normalizer,
		Matcher:    deps.Matcher,
		Templates:  deps.Templates,
	}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
