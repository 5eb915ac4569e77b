package app

import (
	"gorm.io/gorm"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos"
	"github.com/Anil1013/mob13r-platform-sub000/internal/observability"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/fraud"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
	"github.com/Anil1013/mob13r-platform-sub000/internal/services"
)

type Services struct {
	Recorder  services.Recorder
	PinRouter services.PinRouter
	Fraud     *fraud.Checker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	var counter fraud.Counter
	if clients.Velocity != nil {
		counter = clients.Velocity
	}
	checker := fraud.NewChecker(fraud.Config{
		VelocityLimit:  cfg.Fraud.VelocityLimit,
		VelocityWindow: cfg.Fraud.VelocityWindow,
	}, counter, log)

	recorder := services.NewRecorder(services.RecorderConfig{
		Workers:      cfg.Recorder.Workers,
		QueueSize:    cfg.Recorder.QueueSize,
		WriteTimeout: cfg.Recorder.WriteTimeout,
	}, reposet.PinRequestLog, reposet.AdvertiserMetric, metrics, log)

	var caller services.AdvertiserCaller
	if clients.Advertiser != nil {
		caller = clients.Advertiser
	}
	router := services.NewPinRouter(services.PinRouterConfig{
		Retries:            cfg.Advertiser.Retries,
		RetryBackoff:       cfg.Advertiser.RetryBackoff,
		AdaptiveRouting:    cfg.Routing.Adaptive,
		ScoringConcurrency: cfg.Routing.ScoringConcurrency,
	}, services.PinRouterDeps{
		Tx:          repos.NewTxRunner(db),
		Advertisers: reposet.Advertiser,
		Offers:      reposet.Offer,
		Params:      reposet.OfferParameter,
		Assignments: reposet.PublisherOffer,
		Hits:        reposet.DailyHit,
		Sessions:    reposet.PinSession,
		Conversions: reposet.Conversion,
		Metrics:     reposet.AdvertiserMetric,
		Recorder:    recorder,
		Client:      caller,
		Fraud:       checker,
		Obs:         metrics,
	}, log)

	return Services{
		Recorder:  recorder,
		PinRouter: router,
		Fraud:     checker,
	}
}
