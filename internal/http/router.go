package http

import (
	"log/slog"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AuthCore is everything the HTTP layer needs from the auth service.
type AuthCore interface {
	handlers.AuthService
	middlewares.Authenticator
}

type Deps struct {
	Auth AuthCore

	// optional
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ready    map[string]handlers.ReadyCheck
	Health   *handlers.HealthHandler
}

// NewRouter wires the middleware chain and routes. When deps.Health is nil a
// handler is built from deps.Ready.
func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	// health
	h := deps.Health
	if h == nil {
		h = handlers.NewHealthHandler("TaskHub API", deps.Ready)
	}
	r.GET("/", h.Root)
	r.GET("/health", h.Healthz)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(deps.Auth, log)
	authMiddleware := middlewares.NewAuthMiddleware(deps.Auth, log)

	v1 := r.Group("/api/v1")
	a := v1.Group("/auth")
	{
		a.POST("/register", middlewares.RequireJSON(), authHandler.Register)
		a.POST("/login", middlewares.RequireJSON(), authHandler.Login)
		a.POST("/logout", authHandler.Logout)
		a.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		a.GET("/health", authHandler.Health)
	}

	return r
}
