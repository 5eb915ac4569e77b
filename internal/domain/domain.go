package domain

import (
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/offers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
)

type Advertiser = offers.Advertiser
type Offer = offers.Offer
type OfferParameter = offers.OfferParameter
type RequestSpec = offers.RequestSpec
type Publisher = offers.Publisher
type PublisherOffer = offers.PublisherOffer
type DailyHit = offers.DailyHit

type PinSession = pin.PinSession
type Conversion = pin.Conversion
type PinRequestLog = pin.PinRequestLog
type AdvertiserMetric = pin.AdvertiserMetric

// Models lists every table the routing engine migrates.
func Models() []interface{} {
	return []interface{}{
		&offers.Advertiser{},
		&offers.Offer{},
		&offers.OfferParameter{},
		&offers.Publisher{},
		&offers.PublisherOffer{},
		&offers.DailyHit{},

		&pin.PinSession{},
		&pin.Conversion{},
		&pin.PinRequestLog{},
		&pin.AdvertiserMetric{},
	}
}
