package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	auditdomain "github.com/dentalclinic/payouts/internal/audit/domain"
	"github.com/dentalclinic/payouts/internal/config"
	"github.com/dentalclinic/payouts/internal/observability"
	obsmiddleware "github.com/dentalclinic/payouts/internal/observability/logger"
	obstracing "github.com/dentalclinic/payouts/internal/observability/tracing"
	"github.com/dentalclinic/payouts/internal/ratelimit"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ActorContext())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	settlementSvc   settlementdomain.Service
	auditSvc        auditdomain.Service
	generateLimiter *ratelimit.GenerateLimiter
	db              *gorm.DB
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	SettlementSvc   settlementdomain.Service
	AuditSvc        auditdomain.Service        `optional:"true"`
	GenerateLimiter *ratelimit.GenerateLimiter `optional:"true"`
	DB              *gorm.DB                   `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		settlementSvc:   p.SettlementSvc,
		auditSvc:        p.AuditSvc,
		generateLimiter: p.GenerateLimiter,
		db:              p.DB,
	}

	if svc.db != nil {
		svc.engine.GET("/ready", svc.Ready)
	}
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Settlements --------
	api.GET("/settlements", s.ListSettlements)
	api.POST("/settlements", s.CreateSettlement)
	api.GET("/settlements/report", s.SettlementReport)
	api.POST("/settlements/generate", s.GenerateRateLimit(), s.GenerateSettlements)
	api.GET("/settlements/:id", s.GetSettlement)
	api.DELETE("/settlements/:id", s.DeleteSettlement)
	api.POST("/settlements/:id/recompute", s.RecomputeSettlement)
	api.POST("/settlements/:id/approve", s.ApproveSettlement)
	api.POST("/settlements/:id/mark-paid", s.MarkSettlementPaid)
	api.POST("/settlements/:id/cancel", s.CancelSettlement)

	// -------- Audit --------
	if s.auditSvc != nil {
		api.GET("/audit-logs", s.ListAuditLogs)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

const readyTimeout = 2 * time.Second

// Ready reports whether the database answers a ping.
func (s *Server) Ready(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
