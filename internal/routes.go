package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "lexinsights/api/v1"
	"lexinsights/internal/config"
	"lexinsights/internal/http"
	"lexinsights/internal/http/middleware"
)

// publicCORSConfig is shared by all public ingest endpoints. The
// tracking snippet posts cross-origin from the marketing site.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Rate limiting only applies in production, it would interfere
	// with tests and local development
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70 requests per minute per IP handles legitimate snippet traffic
	// while stopping abuse
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	logger := srv.GetLogger()

	statsConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			middleware.DashboardAPIKeyAuth(logger),
		},
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC INGEST ROUTES ===
	srv.Post("/x/api/v1/page-views", v1.CreatePageViewHandler, publicAPIConfig)
	srv.Options("/x/api/v1/page-views", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	srv.Post("/x/api/v1/flush", v1.CreateFlushBeaconHandler, publicAPIConfig)
	srv.Options("/x/api/v1/flush", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	srv.Post("/x/api/v1/events", v1.CreateEventHandler, publicAPIConfig)
	srv.Options("/x/api/v1/events", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === STATS ROUTES ===
	srv.Get("/api/v1/stats/overview", http.StatsOverviewAction, statsConfig)
	srv.Get("/api/v1/stats/channels", http.StatsChannelsAction, statsConfig)
	srv.Get("/api/v1/stats/pages", http.StatsPagesAction, statsConfig)
	srv.Get("/api/v1/stats/devices", http.StatsDevicesAction, statsConfig)
	srv.Get("/api/v1/stats/conversions", http.StatsConversionsAction, statsConfig)
	srv.Get("/api/v1/stats/realtime", http.StatsRealtimeAction, statsConfig)
}
