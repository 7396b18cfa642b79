package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/kirapay/kirapay/internal/audit"
	auditdomain "github.com/kirapay/kirapay/internal/audit/domain"
	"github.com/kirapay/kirapay/internal/config"
	"github.com/kirapay/kirapay/internal/distribution"
	distributiondomain "github.com/kirapay/kirapay/internal/distribution/domain"
	distributionconfig "github.com/kirapay/kirapay/internal/distributionconfig"
	configdomain "github.com/kirapay/kirapay/internal/distributionconfig/domain"
	"github.com/kirapay/kirapay/internal/lease"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	"github.com/kirapay/kirapay/internal/notification"
	paymentfeature "github.com/kirapay/kirapay/internal/payment"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
	"github.com/kirapay/kirapay/internal/property"
	"github.com/kirapay/kirapay/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	audit.Module,
	notification.Module,
	property.Module,
	lease.Module,
	paymentfeature.Module,
	distributionconfig.Module,
	distribution.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(MetricsMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
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
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	genID           *snowflake.Node
	leaseSvc        leasedomain.Service
	paymentSvc      paymentdomain.Service
	distributionSvc distributiondomain.Service
	configSvc       configdomain.Service
	auditSvc        auditdomain.Service
	scheduler       *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	GenID           *snowflake.Node
	LeaseSvc        leasedomain.Service
	PaymentSvc      paymentdomain.Service
	DistributionSvc distributiondomain.Service
	ConfigSvc       configdomain.Service
	AuditSvc        auditdomain.Service
	Scheduler       *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		db:              p.DB,
		genID:           p.GenID,
		leaseSvc:        p.LeaseSvc,
		paymentSvc:      p.PaymentSvc,
		distributionSvc: p.DistributionSvc,
		configSvc:       p.ConfigSvc,
		auditSvc:        p.AuditSvc,
		scheduler:       p.Scheduler,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()
	svc.registerOpsRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", SpaceRequired())

	api.POST("/caution/preview", s.PreviewCaution)

	api.POST("/leases", s.CreateLease)
	api.GET("/leases", s.ListLeases)
	api.GET("/leases/:id", s.GetLeaseByID)
	api.GET("/leases/:id/caution", s.GetLeaseCaution)
	api.POST("/leases/:id/submit-caution", s.SubmitCautionReceipt)
	api.POST("/leases/:id/confirm-caution", s.ConfirmCaution)
	api.POST("/leases/:id/terminate", s.TerminateLease)

	api.POST("/payments/caution", s.InitiateCautionPayment)
	api.POST("/payments/:id/pay", s.InitiateRentPayment)
	api.GET("/payments/:id", s.GetPaymentByID)
	api.GET("/payments/:id/distribution", s.GetDistributionByPayment)

	api.POST("/distributions/:id/disburse", s.DisburseRecipient)
	api.POST("/distributions/:id/mark-sent", s.MarkRecipientSent)

	api.GET("/distribution-config", s.GetDistributionConfig)
	api.PUT("/distribution-config", s.UpsertDistributionConfig)

	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerWebhookRoutes() {
	webhooks := s.engine.Group("/webhooks")

	webhooks.POST("/payments", s.PaymentWebhook)
}

func (s *Server) registerOpsRoutes() {
	ops := s.engine.Group("/ops")

	ops.POST("/jobs/run", s.RunJobs)
}
