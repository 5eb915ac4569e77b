package selection

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	domainoffers "github.com/Anil1013/mob13r-platform-sub000/internal/domain/offers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

// HitCounter reads the rolling daily and all-time hit counters.
type HitCounter interface {
	Get(dbc dbctx.Context, scope string, refID uuid.UUID, day string) (int64, error)
	Total(dbc dbctx.Context, scope string, refID uuid.UUID) (int64, error)
}

// OfferSource loads offer definitions.
type OfferSource interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Offer, error)
	ListActiveByGeoCarrier(dbc dbctx.Context, geo, carrier string) ([]*types.Offer, error)
}

// Resolution is the offer that will serve a request.
type Resolution struct {
	Offer    *types.Offer
	Original *types.Offer
	// Reason is empty when the original offer was usable.
	Reason string
}

func (r Resolution) FellBack() bool { return r.Reason != "" }

const (
	ReasonExplicitFallback = "explicit_fallback"
	ReasonSibling          = "sibling"
)

type Resolver struct {
	offers OfferSource
	hits   HitCounter
	log    *logger.Logger
}

func NewResolver(offers OfferSource, hits HitCounter, baseLog *logger.Logger) *Resolver {
	return &Resolver{
		offers: offers,
		hits:   hits,
		log:    baseLog.With("component", "CapacityResolver"),
	}
}

// Usable reports whether offer is active and below its daily and total caps.
func (r *Resolver) Usable(ctx context.Context, offer *types.Offer, day string) (bool, error) {
	if offer == nil || !offer.Active {
		return false, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	if offer.DailyCap > 0 {
		hits, err := r.hits.Get(dbc, domainoffers.HitScopeOffer, offer.ID, day)
		if err != nil {
			return false, fmt.Errorf("daily hits for offer %s: %w", offer.ID, err)
		}
		if hits >= offer.DailyCap {
			return false, nil
		}
	}
	if offer.TotalCap > 0 {
		total, err := r.hits.Total(dbc, domainoffers.HitScopeOffer, offer.ID)
		if err != nil {
			return false, fmt.Errorf("total hits for offer %s: %w", offer.ID, err)
		}
		if total >= offer.TotalCap {
			return false, nil
		}
	}
	return true, nil
}

// AssignmentUsable checks a publisher assignment's own daily cap.
func (r *Resolver) AssignmentUsable(ctx context.Context, po *types.PublisherOffer, day string) (bool, error) {
	if po == nil || !po.Active {
		return false, nil
	}
	if po.DailyCap <= 0 {
		return true, nil
	}
	hits, err := r.hits.Get(dbctx.Context{Ctx: ctx}, domainoffers.HitScopePublisherOffer, po.ID, day)
	if err != nil {
		return false, fmt.Errorf("daily hits for assignment %s: %w", po.ID, err)
	}
	return hits < po.DailyCap, nil
}

// Resolve returns offer when usable, otherwise its explicit fallback when
// active and usable, otherwise the highest-payout usable sibling with the same
// geo and carrier. The original offer is never its own fallback.
func (r *Resolver) Resolve(ctx context.Context, offer *types.Offer, day string) (Resolution, error) {
	if offer == nil {
		return Resolution{}, ErrNoOfferAvailable
	}
	ok, err := r.Usable(ctx, offer, day)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		return Resolution{Offer: offer, Original: offer}, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	if offer.FallbackOfferID != nil && *offer.FallbackOfferID != offer.ID {
		fb, err := r.offers.GetByID(dbc, *offer.FallbackOfferID)
		if err != nil {
			return Resolution{}, fmt.Errorf("load fallback offer: %w", err)
		}
		if fb != nil {
			usable, err := r.Usable(ctx, fb, day)
			if err != nil {
				return Resolution{}, err
			}
			if usable {
				r.log.Info("offer exhausted, using explicit fallback", "offer_id", offer.ID, "fallback_offer_id", fb.ID)
				return Resolution{Offer: fb, Original: offer, Reason: ReasonExplicitFallback}, nil
			}
		}
	}

	siblings, err := r.offers.ListActiveByGeoCarrier(dbc, offer.Geo, offer.Carrier)
	if err != nil {
		return Resolution{}, fmt.Errorf("list sibling offers: %w", err)
	}
	var best *types.Offer
	for _, s := range siblings {
		if s == nil || s.ID == offer.ID {
			continue
		}
		usable, err := r.Usable(ctx, s, day)
		if err != nil {
			return Resolution{}, err
		}
		if !usable {
			continue
		}
		if best == nil || s.Payout.GreaterThan(best.Payout) {
			best = s
		}
	}
	if best != nil {
		r.log.Info("offer exhausted, using sibling", "offer_id", offer.ID, "fallback_offer_id", best.ID)
		return Resolution{Offer: best, Original: offer, Reason: ReasonSibling}, nil
	}
	return Resolution{}, fmt.Errorf("offer %s exhausted: %w", offer.ID, ErrNoOfferAvailable)
}
