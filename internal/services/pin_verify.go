package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/advclient"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/normalize"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/template"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/apierr"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
)

const opVerify = "pin_verify"

func (s *pinRouter) PinVerify(ctx context.Context, req VerifyRequest) (resp *Response, err error) {
	token := uuid.Nil
	defer s.recoverFailed(pin.StepPinVerify, &token, &resp, &err)

	tok, perr := uuid.Parse(strings.TrimSpace(req.SessionToken))
	if perr != nil {
		return nil, apierr.Validation(opVerify, "session_token must be a uuid")
	}
	otp := strings.TrimSpace(req.OTP)
	if otp == "" {
		return nil, apierr.Validation(opVerify, "otp is required")
	}
	token = tok

	dbc := dbctx.Context{Ctx: ctx}
	sess, err := s.deps.Sessions.GetByToken(dbc, tok)
	if err != nil {
		return s.failed(pin.StepPinVerify, token, apierr.MapError(opVerify, err))
	}
	if sess == nil {
		return nil, apierr.NotFound(opVerify, "session not found")
	}
	if sess.VerifiedAt != nil || sess.Status == pin.StatusSuccess {
		return s.alreadyVerified(sess), nil
	}
	if !sess.HasAdvSessionKey() {
		return nil, apierr.Validation(opVerify, "session has no advertiser session key; pin send did not succeed")
	}

	offer, err := s.deps.Offers.GetByID(dbc, sess.OfferID)
	if err != nil {
		return s.failed(pin.StepPinVerify, token, apierr.MapError(opVerify, err))
	}
	if offer == nil {
		return nil, apierr.NotFound(opVerify, "offer not found")
	}
	static, err := s.deps.Params.Map(dbc, offer.ID)
	if err != nil {
		return s.failed(pin.StepPinVerify, token, apierr.MapError(opVerify, err))
	}
	stored := map[string]string{}
	if len(sess.Params) > 0 {
		if err := json.Unmarshal(sess.Params, &stored); err != nil {
			s.log.Warn("stored session params unreadable", "session_token", token, "error", err)
		}
	}

	tctx := template.BuildContext(template.Inputs{
		Params:       mergeParams(static, stored),
		OTP:          otp,
		SessionKey:   *sess.AdvSessionKey,
		SessionToken: token.String(),
	})
	spec, err := offer.VerifySpec()
	if err != nil {
		return s.failed(pin.StepPinVerify, token, err)
	}
	advReq := advclient.Build(spec, tctx, defaultVerifyBody(tctx))
	pubReq := map[string]any{"session_token": token.String(), "otp": otp}
	s.audit(ctx, token, pin.StepPinVerify,
		entry(pin.DirectionPublisherRequest, pubReq),
		entry(pin.DirectionAdvertiserRequest, advReq.Snapshot()),
	)

	raw, latency, callErr := s.callAdvertiser(ctx, pin.StepPinVerify, advReq)
	if callErr != nil {
		s.log.Warn("advertiser pin verify gave no response", "offer_id", offer.ID, "session_token", token, "error", callErr)
		raw = nil
	}
	mapped := normalize.MapPinVerify(raw)
	out := toResponse(normalize.Publisher(&mapped, false, s.draw), token)

	updates := map[string]interface{}{
		"status":       mapped.Status,
		"adv_response": jsonOf(raw),
		"pub_response": jsonOf(out.Body),
	}
	var conv *types.Conversion
	if mapped.Status == pin.StatusSuccess {
		updates["verified_at"] = s.now().UTC()
		conv = s.successConversion(ctx, sess, offer)
	}
	err = s.inTx(ctx, func(dbc dbctx.Context) error {
		if err := s.deps.Sessions.UpdateFields(dbc, sess.ID, updates); err != nil {
			return err
		}
		if conv != nil {
			return s.deps.Conversions.Create(dbc, conv)
		}
		return nil
	})
	if err != nil {
		merr := apierr.MapError(opVerify, err)
		if apierr.IsCode(merr, apierr.CodeConflict) {
			// A concurrent verify already booked the SUCCESS conversion.
			if cur, gerr := s.deps.Sessions.GetByToken(dbctx.Context{Ctx: ctx}, tok); gerr == nil && cur != nil && cur.VerifiedAt != nil {
				return s.alreadyVerified(cur), nil
			}
		}
		return s.failed(pin.StepPinVerify, token, merr)
	}

	s.audit(ctx, token, pin.StepPinVerify,
		entry(pin.DirectionAdvertiserResponse, raw),
		entry(pin.DirectionPublisherResponse, out.Body),
	)
	if s.deps.Recorder != nil {
		s.deps.Recorder.RecordOutcome(ctx, offer.AdvertiserID, mapped.Success, latency)
	}
	s.deps.Obs.ObserveAdvertiserCall(pin.StepPinVerify, mapped.Status, latency)
	s.deps.Obs.IncOutcome(pin.StepPinVerify, mapped.Status)

	s.log.Info("pin verify finished",
		"session_token", token,
		"offer_id", offer.ID,
		"status", mapped.Status,
		"latency_ms", latency.Milliseconds(),
	)
	return out, nil
}

// alreadyVerified replays the stored publisher payload of a verified session.
// The advertiser is not called again and no conversion is written.
func (s *pinRouter) alreadyVerified(sess *types.PinSession) *Response {
	var body map[string]any
	if len(sess.PubResponse) > 0 {
		if err := json.Unmarshal(sess.PubResponse, &body); err != nil {
			s.log.Warn("stored publisher response unreadable", "session_token", sess.SessionToken, "error", err)
		}
	}
	if body == nil {
		body = map[string]any{"status": pin.StatusSuccess}
	}
	body["session_token"] = sess.SessionToken.String()
	s.log.Info("pin verify replay on verified session", "session_token", sess.SessionToken)
	return &Response{
		Status:       pin.StatusSuccess,
		HTTPCode:     http.StatusOK,
		Body:         body,
		SessionToken: sess.SessionToken.String(),
	}
}

// successConversion prices a verified transaction: payout from the offer,
// CPA from the publisher assignment recorded on the session.
func (s *pinRouter) successConversion(ctx context.Context, sess *types.PinSession, offer *types.Offer) *types.Conversion {
	cpa := decimal.Zero
	if sess.PublisherOfferID != nil {
		po, err := s.deps.Assignments.GetByID(dbctx.Context{Ctx: ctx}, *sess.PublisherOfferID)
		if err != nil {
			s.log.Warn("assignment lookup for cpa failed", "session_token", sess.SessionToken, "error", err)
		} else if po != nil {
			cpa = po.CPA
		}
	}
	return &types.Conversion{
		SessionToken:     sess.SessionToken,
		OfferID:          offer.ID,
		PublisherID:      sess.PublisherID,
		PublisherOfferID: sess.PublisherOfferID,
		MSISDN:           sess.MSISDN,
		Status:           pin.StatusSuccess,
		Payout:           offer.Payout,
		CPA:              cpa,
	}
}

func defaultVerifyBody(ctx template.Context) map[string]any {
	return map[string]any{
		"msisdn":      ctx["msisdn"],
		"otp":         ctx["otp"],
		"session_key": ctx["session_key"],
		"txn_id":      ctx["txn_id"],
	}
}
