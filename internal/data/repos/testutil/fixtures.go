package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
)

func SeedAdvertiser(tb testing.TB, ctx context.Context, tx *gorm.DB, name, geo string) *types.Advertiser {
	tb.Helper()
	a := &types.Advertiser{
		ID:     uuid.New(),
		Name:   name,
		Geo:    geo,
		Active: true,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed advertiser: %v", err)
	}
	return a
}

// OfferOpt tweaks a seeded offer before insert.
type OfferOpt func(o *types.Offer)

func WithDailyCap(n int64) OfferOpt { return func(o *types.Offer) { o.DailyCap = n } }
func WithTotalCap(n int64) OfferOpt { return func(o *types.Offer) { o.TotalCap = n } }
func WithPayout(p string) OfferOpt {
	return func(o *types.Offer) { o.Payout = decimal.RequireFromString(p) }
}
func WithFallback(id uuid.UUID) OfferOpt { return func(o *types.Offer) { o.FallbackOfferID = &id } }
func WithURLs(send, verify string) OfferOpt {
	return func(o *types.Offer) {
		o.PinSendURL = send
		o.PinVerifyURL = verify
	}
}
func Inactive() OfferOpt { return func(o *types.Offer) { o.Active = false } }

func SeedOffer(tb testing.TB, ctx context.Context, tx *gorm.DB, advertiserID uuid.UUID, geo, carrier string, opts ...OfferOpt) *types.Offer {
	tb.Helper()
	o := &types.Offer{
		ID:           uuid.New(),
		AdvertiserID: advertiserID,
		Name:         "offer-" + geo + "-" + carrier,
		Geo:          geo,
		Carrier:      carrier,
		Payout:       decimal.RequireFromString("1.50"),
		PinSendURL:   "http://adv.invalid/send",
		PinVerifyURL: "http://adv.invalid/verify",
		Active:       true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed offer: %v", err)
	}
	return o
}

func SeedOfferParameter(tb testing.TB, ctx context.Context, tx *gorm.DB, offerID uuid.UUID, key, value string) *types.OfferParameter {
	tb.Helper()
	p := &types.OfferParameter{
		ID:         uuid.New(),
		OfferID:    offerID,
		ParamKey:   key,
		ParamValue: value,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed offer parameter: %v", err)
	}
	return p
}

func SeedPublisher(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Publisher {
	tb.Helper()
	p := &types.Publisher{
		ID:     uuid.New(),
		Name:   name,
		Active: true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed publisher: %v", err)
	}
	return p
}

func SeedPublisherOffer(tb testing.TB, ctx context.Context, tx *gorm.DB, publisherID, offerID uuid.UUID, weight, passPercent int) *types.PublisherOffer {
	tb.Helper()
	po := &types.PublisherOffer{
		ID:          uuid.New(),
		PublisherID: publisherID,
		OfferID:     offerID,
		CPA:         decimal.RequireFromString("0.80"),
		Weight:      weight,
		PassPercent: passPercent,
		Active:      true,
	}
	if err := tx.WithContext(ctx).Omit("Offer").Create(po).Error; err != nil {
		tb.Fatalf("seed publisher offer: %v", err)
	}
	return po
}
