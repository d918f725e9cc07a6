// Package handlers exposes the debate service over HTTP and websockets.
package handlers

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/latestcomment/go-ai-debate/internal/services"
)

//go:embed views/*.html
var viewsFS embed.FS

type AppOptions struct {
	Debates         *services.DebateService
	Watch           *services.WatchService
	Logger          *slog.Logger
	RateLimitMax    int // requests per window on /api
	RateLimitWindow time.Duration
	AccessLog       bool
}

// NewApp wires middleware and routes. It does not listen.
func NewApp(opts AppOptions) *fiber.App {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(views), ".html")

	app := fiber.New(fiber.Config{
		Views:                 engine,
		BodyLimit:             1 << 20,
		Immutable:             true,
		DisableStartupMessage: true,
	})
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	if opts.RateLimitMax > 0 {
		window := opts.RateLimitWindow
		if window <= 0 {
			window = 15 * time.Second
		}
		app.Use("/api", limiter.New(limiter.Config{
			Max:        opts.RateLimitMax,
			Expiration: window,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
			},
		}))
	}

	h := NewHandler(opts.Debates, opts.Logger)
	ws := NewWebSocketHandler(opts.Watch, opts.Debates)

	app.Get("/health", h.Health)
	app.Post("/api/debates", h.CreateDebate)
	app.Post("/api/debates/:id/step", h.StepDebate)
	app.Get("/api/debates/:id", h.GetDebate)
	app.Post("/api/votes", h.RecordVote)
	app.Get("/debates/:id", h.DebatePage)
	app.Get("/ws/debates/:id", ws.WebSocketMiddleware, websocket.New(ws.HandleWebSocket))

	return app
}
