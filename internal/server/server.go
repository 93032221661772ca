package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MallamTeja/Fintrack/config"
	"github.com/MallamTeja/Fintrack/internal/handler"
	"github.com/MallamTeja/Fintrack/internal/middleware"
	"github.com/MallamTeja/Fintrack/internal/realtime"
	"github.com/MallamTeja/Fintrack/internal/services"
	"github.com/MallamTeja/Fintrack/internal/transport/httpdto"
	"github.com/MallamTeja/Fintrack/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Auth         *handler.AuthHandler
	Budgets      *handler.BudgetHandler
	Savings      *handler.SavingsHandler
	Transactions *handler.TransactionHandler
	Export       *handler.ExportHandler
}

// Deps are the collaborators the routes need. Limiter is optional.
type Deps struct {
	Handlers    Handlers
	AuthService *services.AuthService
	Realtime    *realtime.Controller
	Limiter     middleware.Limiter
	DB          Pinger
}

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	realtime   *realtime.Controller
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	switch cfg.AppMode {
	case ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(deps Deps) {
	s.realtime = deps.Realtime

	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/health", s.health(deps.DB))
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET(s.config.WSPath, deps.Realtime.Handle)

	api := s.engine.Group("/api")
	if deps.Limiter != nil {
		api.Use(middleware.RateLimitMiddleware(deps.Limiter))
	}
	api.GET("", s.index)

	requireAuth := middleware.AuthMiddleware(deps.AuthService)
	h := deps.Handlers

	auth := api.Group("/auth")
	{
		public := auth.Group("")
		if deps.Limiter != nil {
			public.Use(middleware.AuthRateLimitMiddleware(deps.Limiter))
		}
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)

		auth.POST("/logout", requireAuth, h.Auth.Logout)
		auth.GET("/me", requireAuth, h.Auth.Me)
		auth.PUT("/preferences", requireAuth, h.Auth.UpdatePreferences)
	}

	budgets := api.Group("/budgets", requireAuth)
	{
		budgets.GET("", h.Budgets.List)
		budgets.POST("", h.Budgets.Create)
		budgets.PATCH("/:id", h.Budgets.Update)
		budgets.DELETE("/:id", h.Budgets.Delete)
	}

	goals := api.Group("/savings-goals", requireAuth)
	{
		goals.GET("", h.Savings.List)
		goals.POST("", h.Savings.Create)
		goals.POST("/bulk", h.Savings.Bulk)
		goals.PATCH("/:id", h.Savings.Update)
		goals.DELETE("/:id", h.Savings.Delete)
	}

	transactions := api.Group("/transactions", requireAuth)
	{
		transactions.GET("", h.Transactions.List)
		transactions.POST("", h.Transactions.Create)
		if h.Export != nil {
			transactions.POST("/export", h.Export.Transactions)
		}
		transactions.PUT("/:id", h.Transactions.Update)
		transactions.DELETE("/:id", h.Transactions.Delete)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("Not found", "NOT_FOUND"))
	})
}

func (s *Server) health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clients := len(s.realtime.Connections())
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
			"status":            "healthy",
			"database":          "connected",
			"websocket_clients": clients,
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
		}))
	}
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"message": "FinTrack API",
		"endpoints": gin.H{
			"auth":          "/api/auth",
			"budgets":       "/api/budgets",
			"savings_goals": "/api/savings-goals",
			"transactions":  "/api/transactions",
			"websocket":     s.config.WSPath,
		},
	}))
}

// Run binds the listener, serves until ctx is cancelled and then stops the
// realtime controller before draining HTTP. A bind failure is returned
// immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()
	s.log().Info("server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log().Info("shutdown signal received")
	s.realtime.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log().Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	s.log().Info("server stopped gracefully")
	return nil
}

func (s *Server) log() *zap.Logger {
	if s.logger == nil {
		return zap.L()
	}
	return s.logger.Component("server")
}
