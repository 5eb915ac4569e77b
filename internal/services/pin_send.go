package services

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	domainoffers "github.com/Anil1013/mob13r-platform-sub000/internal/domain/offers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/advclient"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/fraud"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/normalize"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/retry"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/scoring"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/selection"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/template"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/apierr"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
)

const opSend = "pin_send"

func (s *pinRouter) PinSend(ctx context.Context, req SendRequest) (resp *Response, err error) {
	token := uuid.Nil
	defer s.recoverFailed(pin.StepPinSend, &token, &resp, &err)

	params := cleanParams(req.Params)
	if req.OfferID == nil && (req.PublisherID == nil || strings.TrimSpace(req.Geo) == "" || strings.TrimSpace(req.Carrier) == "") {
		return nil, apierr.Validation(opSend, "offer_id or publisher_id with geo and carrier is required")
	}

	if s.deps.Fraud != nil {
		if ferr := s.deps.Fraud.Check(ctx, fraud.Params{MSISDN: params["msisdn"], IP: firstParam(params, "user_ip", "ip")}); ferr != nil {
			return s.fraudRejected(ferr), nil
		}
	}

	token = uuid.New()
	day := domainoffers.DayKey(s.now())

	offer, assignment, err := s.pickOffer(ctx, req, day)
	if err != nil {
		return s.failed(pin.StepPinSend, token, err)
	}

	res, err := s.resolver.Resolve(ctx, offer, day)
	if err != nil {
		if errors.Is(err, selection.ErrNoOfferAvailable) {
			return nil, apierr.NoOfferAvailable(opSend, err)
		}
		return s.failed(pin.StepPinSend, token, err)
	}
	if res.FellBack() {
		s.deps.Obs.IncFallback(res.Reason)
	}
	offer = res.Offer

	if assignment != nil && selection.Held(assignment.PassPercent, s.draw) {
		return s.hold(ctx, token, req, params, offer, assignment)
	}

	if s.cfg.AdaptiveRouting {
		offer, assignment = s.adaptiveOverride(ctx, req, params, offer, assignment, day)
	}

	static, err := s.deps.Params.Map(dbctx.Context{Ctx: ctx}, offer.ID)
	if err != nil {
		return s.failed(pin.StepPinSend, token, apierr.MapError(opSend, err))
	}
	merged := mergeParams(static, params)
	tctx := template.BuildContext(template.Inputs{Params: merged, SessionToken: token.String()})
	merged["txn_id"] = tctx["txn_id"]
	merged["click_id"] = tctx["click_id"]

	spec, err := offer.SendSpec()
	if err != nil {
		return s.failed(pin.StepPinSend, token, err)
	}
	advReq := advclient.Build(spec, tctx, defaultSendBody(tctx))
	pubReq := sendSnapshot(req, params)

	sess := &types.PinSession{
		SessionToken: token,
		OfferID:      offer.ID,
		AdvertiserID: offer.AdvertiserID,
		PublisherID:  req.PublisherID,
		MSISDN:       merged["msisdn"],
		Params:       jsonOf(merged),
		Status:       pin.StatusInit,
		AdvRequest:   jsonOf(advReq.Snapshot()),
		PubRequest:   jsonOf(pubReq),
	}
	if assignment != nil {
		sess.PublisherOfferID = &assignment.ID
	}
	if err := s.deps.Sessions.Create(dbctx.Context{Ctx: ctx}, sess); err != nil {
		return s.failed(pin.StepPinSend, token, apierr.MapError(opSend, err))
	}
	s.audit(ctx, token, pin.StepPinSend,
		entry(pin.DirectionPublisherRequest, pubReq),
		entry(pin.DirectionAdvertiserRequest, advReq.Snapshot()),
	)

	if err := s.countHit(ctx, offer, assignment, day); err != nil {
		return s.failed(pin.StepPinSend, token, err)
	}

	raw, latency, callErr := s.callAdvertiser(ctx, pin.StepPinSend, advReq)
	if callErr != nil {
		s.log.Warn("advertiser pin send gave no response", "offer_id", offer.ID, "session_token", token, "error", callErr)
		raw = nil
	}
	mapped := normalize.MapPinSend(raw)
	payload := normalize.Publisher(&mapped, false, s.draw)
	out := toResponse(payload, token)

	updates := map[string]interface{}{
		"status":       mapped.Status,
		"adv_response": jsonOf(raw),
		"pub_response": jsonOf(out.Body),
	}
	if mapped.SessionKey != nil {
		updates["adv_session_key"] = *mapped.SessionKey
	}
	if err := s.deps.Sessions.UpdateFields(dbctx.Context{Ctx: ctx}, sess.ID, updates); err != nil {
		return s.failed(pin.StepPinSend, token, apierr.MapError(opSend, err))
	}

	s.audit(ctx, token, pin.StepPinSend,
		entry(pin.DirectionAdvertiserResponse, raw),
		entry(pin.DirectionPublisherResponse, out.Body),
	)
	if s.deps.Recorder != nil {
		s.deps.Recorder.RecordOutcome(ctx, offer.AdvertiserID, mapped.Success, latency)
	}
	s.deps.Obs.ObserveAdvertiserCall(pin.StepPinSend, mapped.Status, latency)
	s.deps.Obs.IncOutcome(pin.StepPinSend, mapped.Status)

	s.log.Info("pin send finished",
		"session_token", token,
		"offer_id", offer.ID,
		"status", mapped.Status,
		"latency_ms", latency.Milliseconds(),
	)
	return out, nil
}

// pickOffer loads the offer named by the request, or draws one from the
// publisher's usable assignments by weight. assignment is nil when no
// publisher is involved.
func (s *pinRouter) pickOffer(ctx context.Context, req SendRequest, day string) (*types.Offer, *types.PublisherOffer, error) {
	dbc := dbctx.Context{Ctx: ctx}

	if req.OfferID != nil {
		offer, err := s.deps.Offers.GetByID(dbc, *req.OfferID)
		if err != nil {
			return nil, nil, apierr.MapError(opSend, err)
		}
		if offer == nil {
			return nil, nil, apierr.NotFound(opSend, "offer not found")
		}
		if req.PublisherID == nil {
			return offer, nil, nil
		}
		po, err := s.deps.Assignments.GetForPublisherOffer(dbc, *req.PublisherID, offer.ID)
		if err != nil {
			return nil, nil, apierr.MapError(opSend, err)
		}
		if po == nil || !po.Active {
			return nil, nil, apierr.NotFound(opSend, "offer is not assigned to publisher")
		}
		return offer, po, nil
	}

	rows, err := s.deps.Assignments.ListActiveForPublisher(dbc, *req.PublisherID, req.Geo, req.Carrier)
	if err != nil {
		return nil, nil, apierr.MapError(opSend, err)
	}
	usable := make([]*types.PublisherOffer, 0, len(rows))
	for _, po := range rows {
		if po == nil || po.Offer == nil {
			continue
		}
		ok, err := s.resolver.AssignmentUsable(ctx, po, day)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			usable = append(usable, po)
		}
	}
	po, err := selection.PickWeighted(usable, func(p *types.PublisherOffer) int { return p.Weight }, s.draw)
	if err != nil {
		return nil, nil, apierr.NoOfferAvailable(opSend, err)
	}
	return po.Offer, po, nil
}

// hold short-circuits a held transaction: no advertiser call, a HOLD
// conversion with zero payout, and a disguised failure for the publisher.
func (s *pinRouter) hold(ctx context.Context, token uuid.UUID, req SendRequest, params map[string]string, offer *types.Offer, po *types.PublisherOffer) (*Response, error) {
	payload := normalize.Publisher(&normalize.Result{Status: pin.StatusHold}, true, s.draw)
	out := toResponse(payload, token)
	pubReq := sendSnapshot(req, params)

	err := s.inTx(ctx, func(dbc dbctx.Context) error {
		sess := &types.PinSession{
			SessionToken:     token,
			OfferID:          offer.ID,
			AdvertiserID:     offer.AdvertiserID,
			PublisherID:      req.PublisherID,
			PublisherOfferID: &po.ID,
			MSISDN:           params["msisdn"],
			Params:           jsonOf(params),
			Status:           pin.StatusHold,
			Held:             true,
			PubRequest:       jsonOf(pubReq),
			PubResponse:      jsonOf(out.Body),
		}
		if err := s.deps.Sessions.Create(dbc, sess); err != nil {
			return err
		}
		return s.deps.Conversions.Create(dbc, &types.Conversion{
			SessionToken:     token,
			OfferID:          offer.ID,
			PublisherID:      req.PublisherID,
			PublisherOfferID: &po.ID,
			MSISDN:           params["msisdn"],
			Status:           pin.StatusHold,
		})
	})
	if err != nil {
		return s.failed(pin.StepPinSend, token, apierr.MapError(opSend, err))
	}

	s.audit(ctx, token, pin.StepPinSend,
		entry(pin.DirectionPublisherRequest, pubReq),
		entry(pin.DirectionPublisherResponse, out.Body),
	)
	s.deps.Obs.IncHoldback(payload.Status)
	s.deps.Obs.IncOutcome(pin.StepPinSend, pin.StatusHold)
	s.log.Info("pin send held", "session_token", token, "offer_id", offer.ID, "publisher_offer_id", po.ID, "disguise", payload.Status)
	return out, nil
}

// routeOption is an offer that may serve a request, with the publisher
// assignment that pays for it when a publisher is involved.
type routeOption struct {
	offer      *types.Offer
	assignment *types.PublisherOffer
}

// adaptiveOverride scores the advertisers behind the usable offers in offer's
// geo/carrier bucket. When another advertiser wins, its highest-payout usable
// offer replaces offer, together with the matching assignment. Any failure
// keeps the current offer.
func (s *pinRouter) adaptiveOverride(ctx context.Context, req SendRequest, params map[string]string, offer *types.Offer, po *types.PublisherOffer, day string) (*types.Offer, *types.PublisherOffer) {
	options, err := s.overrideOptions(ctx, offer, po, day)
	if err != nil {
		s.log.Warn("adaptive routing skipped", "offer_id", offer.ID, "error", err)
		return offer, po
	}

	// options arrive highest payout first, so the first one per advertiser is
	// that advertiser's best.
	bestByAdv := map[uuid.UUID]routeOption{offer.AdvertiserID: {offer: offer, assignment: po}}
	order := []uuid.UUID{offer.AdvertiserID}
	for _, o := range options {
		if _, seen := bestByAdv[o.offer.AdvertiserID]; seen {
			continue
		}
		bestByAdv[o.offer.AdvertiserID] = o
		order = append(order, o.offer.AdvertiserID)
	}
	if len(order) < 2 {
		return offer, po
	}

	advs, err := s.deps.Advertisers.GetByIDs(dbctx.Context{Ctx: ctx}, order)
	if err != nil {
		s.log.Warn("adaptive routing skipped", "offer_id", offer.ID, "error", err)
		return offer, po
	}
	byID := make(map[uuid.UUID]*types.Advertiser, len(advs))
	for _, a := range advs {
		byID[a.ID] = a
	}
	cands := make([]scoring.Candidate, 0, len(order))
	for _, id := range order {
		a := byID[id]
		if a == nil {
			continue
		}
		cands = append(cands, scoring.Candidate{AdvertiserID: a.ID, Geo: a.Geo, Active: a.Active})
	}

	feats := scoring.NewFeatures(req.Geo, req.Carrier, params["msisdn"], offer.ID, s.now())
	if feats.Geo == "" {
		feats.Geo = offer.Geo
	}
	winner, ok := s.scorer.Pick(ctx, cands, feats)
	if !ok || winner == offer.AdvertiserID {
		return offer, po
	}
	next := bestByAdv[winner]
	s.deps.Obs.IncAdaptiveOverride()
	s.log.Info("adaptive routing override", "offer_id", offer.ID, "override_offer_id", next.offer.ID, "advertiser_id", winner)
	return next.offer, next.assignment
}

// overrideOptions lists the usable alternatives to offer, highest payout
// first. With an assignment in play only offers the same publisher is assigned
// to qualify, so hits and CPA follow the assignment that served the traffic.
func (s *pinRouter) overrideOptions(ctx context.Context, offer *types.Offer, po *types.PublisherOffer, day string) ([]routeOption, error) {
	dbc := dbctx.Context{Ctx: ctx}
	var out []routeOption

	if po == nil {
		siblings, err := s.deps.Offers.ListActiveByGeoCarrier(dbc, offer.Geo, offer.Carrier)
		if err != nil {
			return nil, err
		}
		for _, o := range siblings {
			if o == nil {
				continue
			}
			ok, err := s.resolver.Usable(ctx, o, day)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, routeOption{offer: o})
			}
		}
		return out, nil
	}

	rows, err := s.deps.Assignments.ListActiveForPublisher(dbc, po.PublisherID, offer.Geo, offer.Carrier)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row == nil || row.Offer == nil {
			continue
		}
		ok, err := s.resolver.Usable(ctx, row.Offer, day)
		if err != nil {
			return nil, err
		}
		if ok {
			ok, err = s.resolver.AssignmentUsable(ctx, row, day)
			if err != nil {
				return nil, err
			}
		}
		if ok {
			out = append(out, routeOption{offer: row.Offer, assignment: row})
		}
	}
	slices.SortStableFunc(out, func(a, b routeOption) int { return b.offer.Payout.Cmp(a.offer.Payout) })
	return out, nil
}

func (s *pinRouter) countHit(ctx context.Context, offer *types.Offer, po *types.PublisherOffer, day string) error {
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.deps.Hits.Increment(dbc, domainoffers.HitScopeOffer, offer.ID, day, 1); err != nil {
		return apierr.MapError(opSend, err)
	}
	if po != nil {
		if err := s.deps.Hits.Increment(dbc, domainoffers.HitScopePublisherOffer, po.ID, day, 1); err != nil {
			return apierr.MapError(opSend, err)
		}
	}
	return nil
}

func (s *pinRouter) fraudRejected(err error) *Response {
	code := http.StatusBadRequest
	msg := err.Error()
	if !errors.Is(err, fraud.ErrInvalidMSISDN) && !errors.Is(err, fraud.ErrInvalidIP) && !errors.Is(err, fraud.ErrVelocity) {
		code = http.StatusInternalServerError
		msg = "fraud check unavailable"
		s.log.Error("fraud check failed", "error", err)
	}
	s.deps.Obs.IncOutcome(pin.StepPinSend, pin.StatusFailed)
	return &Response{
		Status:   pin.StatusFailed,
		HTTPCode: code,
		Body:     map[string]any{"status": pin.StatusFailed, "message": msg},
	}
}

func retryCall(ctx context.Context, cfg PinRouterConfig, op func(context.Context) (any, error), notify func(int, error)) (any, error) {
	opts := []retry.Option{retry.WithNotify(notify)}
	if cfg.RetryBackoff > 0 {
		opts = append(opts, retry.WithBackoff(cfg.RetryBackoff))
	}
	return retry.Do(ctx, cfg.Retries, op, opts...)
}

func defaultSendBody(ctx template.Context) map[string]any {
	return map[string]any{
		"msisdn":   ctx["msisdn"],
		"ip":       ctx["user_ip"],
		"ua":       ctx["ua"],
		"txn_id":   ctx["txn_id"],
		"click_id": ctx["click_id"],
	}
}

func sendSnapshot(req SendRequest, params map[string]string) map[string]any {
	out := map[string]any{"params": params}
	if req.OfferID != nil {
		out["offer_id"] = req.OfferID.String()
	}
	if req.PublisherID != nil {
		out["publisher_id"] = req.PublisherID.String()
	}
	if req.Geo != "" {
		out["geo"] = req.Geo
	}
	if req.Carrier != "" {
		out["carrier"] = req.Carrier
	}
	return out
}

func cleanParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// mergeParams overlays inbound on static; inbound wins on conflicts.
func mergeParams(static, inbound map[string]string) map[string]string {
	out := make(map[string]string, len(static)+len(inbound))
	for k, v := range static {
		out[k] = v
	}
	for k, v := range inbound {
		out[k] = v
	}
	return out
}

func firstParam(p map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := p[k]; v != "" {
			return v
		}
	}
	return ""
}
