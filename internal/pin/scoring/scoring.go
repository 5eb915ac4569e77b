package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

const (
	SuccessWeight = 0.5
	SpeedWeight   = 0.3
	GeoBoost      = 0.2

	// LatencyFloorMS stands in for a missing or zero average latency. It does
	// not distinguish "no data yet" from a genuine 1ms observation.
	LatencyFloorMS = 1.0

	msisdnPrefixLen = 5
)

// MetricSource reads the rolling per-advertiser counters.
type MetricSource interface {
	GetByAdvertiserID(dbc dbctx.Context, advertiserID uuid.UUID) (*types.AdvertiserMetric, error)
}

type Candidate struct {
	AdvertiserID uuid.UUID
	Geo          string
	Active       bool
}

// Features describe the request being routed.
type Features struct {
	Geo          string
	Carrier      string
	Hour         int
	MSISDNPrefix string
	OfferID      uuid.UUID
}

func NewFeatures(geo, carrier, msisdn string, offerID uuid.UUID, now time.Time) Features {
	prefix := strings.TrimPrefix(strings.TrimSpace(msisdn), "+")
	if len(prefix) > msisdnPrefixLen {
		prefix = prefix[:msisdnPrefixLen]
	}
	return Features{
		Geo:          geo,
		Carrier:      carrier,
		Hour:         now.UTC().Hour(),
		MSISDNPrefix: prefix,
		OfferID:      offerID,
	}
}

// Score is successRate*0.5 + (1/avgLatency)*0.3 + geo boost.
func Score(m *types.AdvertiserMetric, advertiserGeo, requestGeo string) float64 {
	rate := 0.0
	latency := LatencyFloorMS
	if m != nil {
		rate = m.SuccessRate
		if m.AvgLatencyMS > 0 {
			latency = m.AvgLatencyMS
		}
	}
	s := rate*SuccessWeight + (1/latency)*SpeedWeight
	if advertiserGeo != "" && strings.EqualFold(advertiserGeo, requestGeo) {
		s += GeoBoost
	}
	return s
}

type Router struct {
	metrics     MetricSource
	log         *logger.Logger
	concurrency int
}

func NewRouter(metrics MetricSource, baseLog *logger.Logger, concurrency int) *Router {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Router{
		metrics:     metrics,
		log:         baseLog.With("component", "AdaptiveRouter"),
		concurrency: concurrency,
	}
}

// Pick returns the active candidate with the strictly highest score, ties
// going to the first seen. ok is false when no candidate could be scored.
// A candidate whose metrics fail to load is logged and skipped.
func (r *Router) Pick(ctx context.Context, candidates []Candidate, f Features) (uuid.UUID, bool) {
	active := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Active && c.AdvertiserID != uuid.Nil {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return uuid.Nil, false
	}

	scores := make([]float64, len(active))
	scored := make([]bool, len(active))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, c := range active {
		g.Go(func() error {
			m, err := r.metrics.GetByAdvertiserID(dbctx.Context{Ctx: gctx}, c.AdvertiserID)
			if err != nil {
				r.log.Warn("scoring skipped advertiser", "advertiser_id", c.AdvertiserID, "error", err)
				return nil
			}
			scores[i] = Score(m, c.Geo, f.Geo)
			scored[i] = true
			return nil
		})
	}
	_ = g.Wait()

	best := -1
	for i := range active {
		if !scored[i] {
			continue
		}
		if best < 0 || scores[i] > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return uuid.Nil, false
	}

	r.log.Debug("adaptive route decision",
		"advertiser_id", active[best].AdvertiserID,
		"score", scores[best],
		"geo", f.Geo,
		"carrier", f.Carrier,
		"hour", f.Hour,
		"msisdn_prefix", f.MSISDNPrefix,
		"offer_id", f.OfferID,
	)
	return active[best].AdvertiserID, true
}
