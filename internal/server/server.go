// Package server is the HTTP delivery layer: gin routes over the domain
// services plus health and metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/hanapark/hanapark/internal/booking/domain"
	"github.com/hanapark/hanapark/internal/config"
	paymentdomain "github.com/hanapark/hanapark/internal/payment/domain"
	"github.com/hanapark/hanapark/internal/payment/webhook"
	spotdomain "github.com/hanapark/hanapark/internal/spot/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func registerGin(cfg config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(ErrorHandlingMiddleware())
	return engine
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
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
	log        *zap.Logger
	spotSvc    spotdomain.Service
	bookingSvc bookingdomain.Service
	paymentSvc paymentdomain.Service
	webhookSvc *webhook.Service
}

type ServerParams struct {
	fx.In

	Log        *zap.Logger
	SpotSvc    spotdomain.Service
	BookingSvc bookingdomain.Service
	PaymentSvc paymentdomain.Service
	WebhookSvc *webhook.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		log:        p.Log.Named("http.server"),
		spotSvc:    p.SpotSvc,
		bookingSvc: p.BookingSvc,
		paymentSvc: p.PaymentSvc,
		webhookSvc: p.WebhookSvc,
	}
}

func registerRoutes(r *gin.Engine, s *Server) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/spots", s.HandleRegisterSpot)
		v1.GET("/spots/:id", s.HandleGetSpot)
		v1.POST("/spots/:id/approve", s.HandleApproveSpot)

		v1.POST("/bookings", s.HandleCreateBooking)
		v1.GET("/bookings/:id", s.HandleGetBooking)
		v1.POST("/bookings/:id/cancel", s.HandleCancelBooking)

		v1.POST("/payments", s.HandleInitiatePayment)
		v1.GET("/payments/:reference", s.HandleGetPayment)
		v1.POST("/payments/:reference/poll", s.HandlePollPayment)
	}

	r.POST("/webhooks/payment", s.HandlePaymentWebhook)
}
