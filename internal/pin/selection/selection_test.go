package selection

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	domainoffers "github.com/Anil1013/mob13r-platform-sub000/internal/domain/offers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

func TestPickWeightedConverges(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	weights := []int{10, 30, 60}
	counts := make([]int, len(weights))
	idx := []int{0, 1, 2}
	const n = 10000
	for i := 0; i < n; i++ {
		got, err := PickWeighted(idx, func(i int) int { return weights[i] }, rng.Float64)
		if err != nil {
			t.Fatalf("PickWeighted: %v", err)
		}
		counts[got]++
	}
	for i, w := range weights {
		share := float64(counts[i]) / n
		want := float64(w) / 100
		if math.Abs(share-want) > 0.03 {
			t.Fatalf("weight %d: share=%.3f want %.2f±0.03", w, share, want)
		}
	}
}

func TestPickWeightedCoercesWeights(t *testing.T) {
	items := []string{"a", "b"}
	w := map[string]int{"a": 0, "b": -5}
	// Both count as 1: draw 0.49 lands in a, 0.5 in b.
	if got, _ := PickWeighted(items, func(s string) int { return w[s] }, func() float64 { return 0.49 }); got != "a" {
		t.Fatalf("got %q", got)
	}
	if got, _ := PickWeighted(items, func(s string) int { return w[s] }, func() float64 { return 0.5 }); got != "b" {
		t.Fatalf("got %q", got)
	}
}

func TestPickWeightedEmpty(t *testing.T) {
	_, err := PickWeighted([]int{}, func(int) int { return 1 }, rand.Float64)
	if !errors.Is(err, ErrNoOfferAvailable) {
		t.Fatalf("err=%v", err)
	}
}

func TestHeldBoundaries(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		if !Held(0, rng.Float64) {
			t.Fatalf("pass 0 must always hold")
		}
		if Held(100, rng.Float64) {
			t.Fatalf("pass 100 must never hold")
		}
	}
	if Held(30, func() float64 { return 0.29 }) {
		t.Fatalf("draw 29 < pass 30 should pass")
	}
	if !Held(30, func() float64 { return 0.30 }) {
		t.Fatalf("draw 30 >= pass 30 should hold")
	}
}

type fakeHits struct {
	daily map[uuid.UUID]int64
	total map[uuid.UUID]int64
}

func (f *fakeHits) Get(_ dbctx.Context, scope string, ref uuid.UUID, _ string) (int64, error) {
	if scope != domainoffers.HitScopeOffer && scope != domainoffers.HitScopePublisherOffer {
		return 0, errors.New("bad scope")
	}
	return f.daily[ref], nil
}

func (f *fakeHits) Total(_ dbctx.Context, _ string, ref uuid.UUID) (int64, error) {
	return f.total[ref], nil
}

type fakeOffers struct {
	byID []*types.Offer
}

func (f *fakeOffers) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Offer, error) {
	for _, o := range f.byID {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOffers) ListActiveByGeoCarrier(_ dbctx.Context, geo, carrier string) ([]*types.Offer, error) {
	var out []*types.Offer
	for _, o := range f.byID {
		if o.Active && o.Geo == geo && o.Carrier == carrier {
			out = append(out, o)
		}
	}
	return out, nil
}

func offer(payout string, dailyCap int64) *types.Offer {
	return &types.Offer{
		ID:       uuid.New(),
		Geo:      "IN",
		Carrier:  "VI",
		Payout:   decimal.RequireFromString(payout),
		DailyCap: dailyCap,
		Active:   true,
	}
}

func TestResolverDailyCapBoundary(t *testing.T) {
	o := offer("2.00", 100)
	hits := &fakeHits{daily: map[uuid.UUID]int64{o.ID: 99}}
	r := NewResolver(&fakeOffers{byID: []*types.Offer{o}}, hits, logger.Nop())
	ctx := context.Background()

	if ok, _ := r.Usable(ctx, o, "2026-10-15"); !ok {
		t.Fatalf("99 of 100 should be usable")
	}
	hits.daily[o.ID] = 100
	if ok, _ := r.Usable(ctx, o, "2026-10-15"); ok {
		t.Fatalf("100 of 100 should be unusable")
	}
}

func TestResolverTotalCap(t *testing.T) {
	o := offer("2.00", 0)
	o.TotalCap = 10
	r := NewResolver(&fakeOffers{}, &fakeHits{total: map[uuid.UUID]int64{o.ID: 10}}, logger.Nop())
	if ok, _ := r.Usable(context.Background(), o, "d"); ok {
		t.Fatalf("total cap reached should be unusable")
	}
}

func TestResolverExplicitFallback(t *testing.T) {
	fb := offer("1.00", 0)
	richer := offer("5.00", 0)
	o := offer("2.00", 1)
	o.FallbackOfferID = &fb.ID
	hits := &fakeHits{daily: map[uuid.UUID]int64{o.ID: 1}}
	r := NewResolver(&fakeOffers{byID: []*types.Offer{o, fb, richer}}, hits, logger.Nop())

	res, err := r.Resolve(context.Background(), o, "d")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Offer.ID != fb.ID || res.Reason != ReasonExplicitFallback || !res.FellBack() {
		t.Fatalf("expected explicit fallback, got %+v", res)
	}
}

func TestResolverSiblingExcludesSelf(t *testing.T) {
	// The exhausted offer has the highest payout; it must not pick itself.
	o := offer("9.00", 1)
	a := offer("1.00", 0)
	b := offer("3.00", 0)
	inactiveFB := offer("7.00", 0)
	inactiveFB.Active = false
	o.FallbackOfferID = &inactiveFB.ID
	hits := &fakeHits{daily: map[uuid.UUID]int64{o.ID: 1}}
	r := NewResolver(&fakeOffers{byID: []*types.Offer{o, a, b, inactiveFB}}, hits, logger.Nop())

	res, err := r.Resolve(context.Background(), o, "d")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Offer.ID != b.ID || res.Reason != ReasonSibling {
		t.Fatalf("expected highest payout sibling, got %+v", res.Offer)
	}
}

func TestResolverNoFallback(t *testing.T) {
	o := offer("2.00", 1)
	hits := &fakeHits{daily: map[uuid.UUID]int64{o.ID: 5}}
	r := NewResolver(&fakeOffers{byID: []*types.Offer{o}}, hits, logger.Nop())
	_, err := r.Resolve(context.Background(), o, "d")
	if !errors.Is(err, ErrNoOfferAvailable) {
		t.Fatalf("err=%v want ErrNoOfferAvailable", err)
	}
}

func TestResolverUsableOffer(t *testing.T) {
	o := offer("2.00", 0)
	r := NewResolver(&fakeOffers{byID: []*types.Offer{o}}, &fakeHits{}, logger.Nop())
	res, err := r.Resolve(context.Background(), o, "d")
	if err != nil || res.Offer != o || res.FellBack() {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestAssignmentUsable(t *testing.T) {
	po := &types.PublisherOffer{ID: uuid.New(), Active: true, DailyCap: 2}
	hits := &fakeHits{daily: map[uuid.UUID]int64{po.ID: 2}}
	r := NewResolver(&fakeOffers{}, hits, logger.Nop())
	if ok, _ := r.AssignmentUsable(context.Background(), po, "d"); ok {
		t.Fatalf("assignment at cap should be unusable")
	}
	po.DailyCap = 0
	if ok, _ := r.AssignmentUsable(context.Background(), po, "d"); !ok {
		t.Fatalf("uncapped assignment should be usable")
	}
}
