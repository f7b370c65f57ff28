package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/gigflow/marketplace/docs"
	"github.com/gigflow/marketplace/internal/api/handler"
	"github.com/gigflow/marketplace/internal/api/middleware"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/infrastructure/ws"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Gigs           ports.GigService
	Bids           ports.BidService
	Store          handler.Pinger
	Redis          *redis.Client // optional
	Presence       ports.PresenceRegistry
	Upgrader       *ws.Upgrader
	JWTSecret      string
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     allowOrigins(deps.AllowedOrigins),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: len(deps.AllowedOrigins) > 0,
	}))

	// --- Handlers ---
	gigHandler := handler.NewGigHandler(deps.Gigs, deps.Bids)
	bidHandler := handler.NewBidHandler(deps.Bids)
	wsHandler := handler.NewWSHandler(deps.Upgrader, deps.Presence, deps.Logger.With().Str("component", "ws").Logger())
	healthHandler := handler.NewHealthHandler(deps.Store, deps.Redis)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Gig routes ---
	gigs := e.Group("/api/gigs")
	gigs.GET("", gigHandler.ListOpen)
	gigs.GET("/my", gigHandler.ListMine, authMiddleware)
	gigs.GET("/:id", gigHandler.Get)
	gigs.POST("", gigHandler.Create, authMiddleware)
	gigs.DELETE("/:id", gigHandler.Delete, authMiddleware)
	gigs.GET("/:id/bids", gigHandler.ListBids, authMiddleware)

	// --- Bid routes ---
	bids := e.Group("/api/bids", authMiddleware)
	bids.POST("", bidHandler.Place)
	bids.GET("/my", bidHandler.ListMine)
	bids.PATCH("/:id", bidHandler.Update)
	bids.DELETE("/:id", bidHandler.Delete)
	bids.PATCH("/:id/hire", bidHandler.Hire)

	// --- Presence channel ---
	e.GET("/ws", wsHandler.Connect, middleware.AuthWithQueryToken(deps.JWTSecret))

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
