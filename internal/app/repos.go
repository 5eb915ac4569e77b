package app

import (
	"gorm.io/gorm"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type Repos struct {
	Advertiser       repos.AdvertiserRepo
	Offer            repos.OfferRepo
	OfferParameter   repos.OfferParameterRepo
	PublisherOffer   repos.PublisherOfferRepo
	DailyHit         repos.DailyHitRepo
	PinSession       repos.PinSessionRepo
	Conversion       repos.ConversionRepo
	PinRequestLog    repos.PinRequestLogRepo
	AdvertiserMetric repos.AdvertiserMetricRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Advertiser:       repos.NewAdvertiserRepo(db, log),
		Offer:            repos.NewOfferRepo(db, log),
		OfferParameter:   repos.NewOfferParameterRepo(db, log),
		PublisherOffer:   repos.NewPublisherOfferRepo(db, log),
		DailyHit:         repos.NewDailyHitRepo(db, log),
		PinSession:       repos.NewPinSessionRepo(db, log),
		Conversion:       repos.NewConversionRepo(db, log),
		PinRequestLog:    repos.NewPinRequestLogRepo(db, log),
		AdvertiserMetric: repos.NewAdvertiserMetricRepo(db, log),
	}
}
