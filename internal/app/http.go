package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/Anil1013/mob13r-platform-sub000/internal/http"
	httpH "github.com/Anil1013/mob13r-platform-sub000/internal/http/handlers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/observability"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Pin    *httpH.PinHandler
}

type dbPinger struct{ db *gorm.DB }

func (p dbPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	deps := map[string]httpH.Pinger{}
	if db != nil {
		deps["postgres"] = dbPinger{db: db}
	}
	if clients.Velocity != nil {
		deps["redis"] = clients.Velocity
	}
	return Handlers{
		Health: httpH.NewHealthHandler(deps),
		Pin:    httpH.NewPinHandler(services.PinRouter),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *apphttp.Server {
	tracing := ""
	if cfg.Tracing.Enabled {
		tracing = cfg.Tracing.ServiceName
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		PinHandler:     handlers.Pin,
		HealthHandler:  handlers.Health,
		Metrics:        metrics,
		TracingService: tracing,
		CORSOrigins:    cfg.CORSOrigins,
	})
}
