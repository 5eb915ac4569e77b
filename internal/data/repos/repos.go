package repos

import (
	"gorm.io/gorm"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos/metrics"
	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos/offers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos/sessions"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type AdvertiserRepo = offers.AdvertiserRepo
type OfferRepo = offers.OfferRepo
type OfferParameterRepo = offers.OfferParameterRepo
type PublisherOfferRepo = offers.PublisherOfferRepo
type DailyHitRepo = offers.DailyHitRepo

type PinSessionRepo = sessions.PinSessionRepo
type ConversionRepo = sessions.ConversionRepo
type PinRequestLogRepo = sessions.PinRequestLogRepo

type AdvertiserMetricRepo = metrics.AdvertiserMetricRepo

func NewAdvertiserRepo(db *gorm.DB, baseLog *logger.Logger) AdvertiserRepo {
	return offers.NewAdvertiserRepo(db, baseLog)
}

func NewOfferRepo(db *gorm.DB, baseLog *logger.Logger) OfferRepo {
	return offers.NewOfferRepo(db, baseLog)
}

func NewOfferParameterRepo(db *gorm.DB, baseLog *logger.Logger) OfferParameterRepo {
	return offers.NewOfferParameterRepo(db, baseLog)
}

func NewPublisherOfferRepo(db *gorm.DB, baseLog *logger.Logger) PublisherOfferRepo {
	return offers.NewPublisherOfferRepo(db, baseLog)
}

func NewDailyHitRepo(db *gorm.DB, baseLog *logger.Logger) DailyHitRepo {
	return offers.NewDailyHitRepo(db, baseLog)
}

func NewPinSessionRepo(db *gorm.DB, baseLog *logger.Logger) PinSessionRepo {
	return sessions.NewPinSessionRepo(db, baseLog)
}

func NewConversionRepo(db *gorm.DB, baseLog *logger.Logger) ConversionRepo {
	return sessions.NewConversionRepo(db, baseLog)
}

func NewPinRequestLogRepo(db *gorm.DB, baseLog *logger.Logger) PinRequestLogRepo {
	return sessions.NewPinRequestLogRepo(db, baseLog)
}

func NewAdvertiserMetricRepo(db *gorm.DB, baseLog *logger.Logger) AdvertiserMetricRepo {
	return metrics.NewAdvertiserMetricRepo(db, baseLog)
}
