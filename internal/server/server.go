package server

import (
	"context"
	"net/http"
	"time"

	"github.com/futautah-hue/balo-website/internal/booking"
	bookingdomain "github.com/futautah-hue/balo-website/internal/booking/domain"
	"github.com/futautah-hue/balo-website/internal/config"
	"github.com/futautah-hue/balo-website/internal/entitlement"
	entitlementdomain "github.com/futautah-hue/balo-website/internal/entitlement/domain"
	"github.com/futautah-hue/balo-website/internal/notification"
	notificationdomain "github.com/futautah-hue/balo-website/internal/notification/domain"
	"github.com/futautah-hue/balo-website/internal/observability"
	obsmiddleware "github.com/futautah-hue/balo-website/internal/observability/logger"
	obsmetrics "github.com/futautah-hue/balo-website/internal/observability/metrics"
	obstracing "github.com/futautah-hue/balo-website/internal/observability/tracing"
	"github.com/futautah-hue/balo-website/internal/providers/email"
	"github.com/futautah-hue/balo-website/internal/providers/escrow"
	"github.com/futautah-hue/balo-website/internal/ratelimit"
	"github.com/futautah-hue/balo-website/internal/recordstore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	ratelimit.Module,
	recordstore.Module,
	email.Module,
	escrow.Module,
	notification.Module,
	booking.Module,
	entitlement.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine *gin.Engine
	cfg    config.Config

	bookingSvc      bookingdomain.Service
	entitlementSvc  entitlementdomain.Service
	notificationSvc notificationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config

	BookingSvc      bookingdomain.Service
	EntitlementSvc  entitlementdomain.Service
	NotificationSvc notificationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,

		bookingSvc:      p.BookingSvc,
		entitlementSvc:  p.EntitlementSvc,
		notificationSvc: p.NotificationSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.RequireUser())

	// -------- Bookings --------
	api.POST("/bookings/:kind/:id/complete", s.CompleteBooking)

	// -------- Plans --------
	api.GET("/plans/:plan/status", s.GetPlanStatus)
	api.POST("/plans/:plan/activate", s.ActivatePlan)

	// -------- Notifications --------
	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/read", s.MarkNotificationsRead)
	api.DELETE("/notifications/:id", s.DeleteNotification)
}
