package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mzavadsky/accounthub/internal/config"
	"github.com/mzavadsky/accounthub/internal/http/handlers"
	"github.com/mzavadsky/accounthub/internal/http/middlewares"
	"github.com/mzavadsky/accounthub/internal/observability"
	"github.com/mzavadsky/accounthub/internal/service"
	"github.com/mzavadsky/accounthub/internal/token"
)

// NewRouter wires the transport layer. The store comes in as an interface
// so tests can run the whole router against the in-memory adapter.
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, store service.AccountStore, cfg config.Config, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("accounthub"))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	}

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// wire up the core: issuer -> services -> handlers
	issuer := token.NewIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	accounts := service.NewAccountService(store)
	auth := service.NewAuthService(accounts, issuer)

	authHandler := handlers.NewAuthHandler(auth, accounts, prom)
	accountsHandler := handlers.NewAccountsHandler(accounts)

	guard := middlewares.NewAuthMiddleware(issuer)

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	r.POST("/auth/refresh", authHandler.Refresh)
	r.GET("/auth/profile", guard.RequireAuth(), authHandler.Profile)

	protected := r.Group("/accounts", guard.RequireAuth())
	protected.GET("/:id", accountsHandler.GetByID)
	protected.PATCH("/:id", accountsHandler.Update)
	protected.DELETE("/:id", guard.RequireRole("admin"), accountsHandler.Delete)

	return r
}
