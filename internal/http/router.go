package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Anil1013/mob13r-platform-sub000/internal/http/handlers"
	httpMW "github.com/Anil1013/mob13r-platform-sub000/internal/http/middleware"
	"github.com/Anil1013/mob13r-platform-sub000/internal/observability"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	PinHandler    *httpH.PinHandler
	HealthHandler *httpH.HealthHandler

	// Metrics, when set, instruments requests and serves /metrics.
	Metrics *observability.Metrics
	// TracingService enables otelgin spans under this service name.
	TracingService string
	CORSOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Recovery(cfg.Log))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		if cfg.PinHandler != nil {
			v1.POST("/pin/send", cfg.PinHandler.Send)
			v1.POST("/offers/:offer_id/pin/send", cfg.PinHandler.Send)
			v1.POST("/pin/verify", cfg.PinHandler.Verify)
			v1.GET("/pin/status/:token", cfg.PinHandler.Status)
		}
	}

	return r
}
