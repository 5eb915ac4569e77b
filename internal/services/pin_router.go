package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos"
	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
	"github.com/Anil1013/mob13r-platform-sub000/internal/observability"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/advclient"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/fraud"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/normalize"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/scoring"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/selection"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/apierr"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

// SendRequest starts a PIN transaction. Either OfferID is set, or PublisherID
// together with Geo and Carrier.
type SendRequest struct {
	OfferID     *uuid.UUID
	PublisherID *uuid.UUID
	Geo         string
	Carrier     string
	// Params holds msisdn, ip, ua, click ids and any passthrough values.
	Params map[string]string
}

type VerifyRequest struct {
	SessionToken string
	OTP          string
}

// Response is the publisher-facing outcome of a PIN operation.
type Response struct {
	Status       string
	HTTPCode     int
	Body         map[string]any
	SessionToken string
}

type StatusView struct {
	SessionToken uuid.UUID  `json:"session_token"`
	Status       string     `json:"status"`
	Verified     bool       `json:"verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AdvertiserCaller executes one rendered advertiser request.
type AdvertiserCaller interface {
	Do(ctx context.Context, req advclient.Request) (any, error)
}

type PinRouter interface {
	PinSend(ctx context.Context, req SendRequest) (*Response, error)
	PinVerify(ctx context.Context, req VerifyRequest) (*Response, error)
	Status(ctx context.Context, token string) (*StatusView, error)
}

type PinRouterConfig struct {
	// Retries is the number of extra advertiser attempts after the first.
	Retries         int
	RetryBackoff    time.Duration
	AdaptiveRouting bool
	// ScoringConcurrency bounds parallel metric loads during adaptive routing.
	ScoringConcurrency int
}

type PinRouterDeps struct {
	Tx          repos.TxRunner
	Advertisers repos.AdvertiserRepo
	Offers      repos.OfferRepo
	Params      repos.OfferParameterRepo
	Assignments repos.PublisherOfferRepo
	Hits        repos.DailyHitRepo
	Sessions    repos.PinSessionRepo
	Conversions repos.ConversionRepo
	Metrics     repos.AdvertiserMetricRepo

	Recorder Recorder
	Client   AdvertiserCaller
	// Fraud may be nil, which skips fraud checks.
	Fraud *fraud.Checker
	Obs   *observability.Metrics

	// Draw returns a uniform value in [0,1). Defaults to math/rand/v2.
	Draw func() float64
	Now  func() time.Time
}

type pinRouter struct {
	cfg  PinRouterConfig
	log  *logger.Logger
	deps PinRouterDeps

	resolver *selection.Resolver
	scorer   *scoring.Router
	draw     func() float64
	now      func() time.Time
}

func NewPinRouter(cfg PinRouterConfig, deps PinRouterDeps, baseLog *logger.Logger) PinRouter {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	draw := deps.Draw
	if draw == nil {
		draw = rand.Float64
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &pinRouter{
		cfg:      cfg,
		log:      baseLog.With("service", "PinRouter"),
		deps:     deps,
		resolver: selection.NewResolver(deps.Offers, deps.Hits, baseLog),
		scorer:   scoring.NewRouter(deps.Metrics, baseLog, cfg.ScoringConcurrency),
		draw:     draw,
		now:      now,
	}
}

// Status reports the publisher-facing state of a transaction. Held sessions
// surface their disguised status, never HOLD.
func (s *pinRouter) Status(ctx context.Context, token string) (*StatusView, error) {
	tok, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, apierr.Validation("pin_status", "session_token must be a uuid")
	}
	sess, err := s.deps.Sessions.GetByToken(dbctx.Context{Ctx: ctx}, tok)
	if err != nil {
		return nil, apierr.MapError("pin_status", err)
	}
	if sess == nil {
		return nil, apierr.NotFound("pin_status", "session not found")
	}
	status := sess.Status
	if len(sess.PubResponse) > 0 {
		var pub map[string]any
		if json.Unmarshal(sess.PubResponse, &pub) == nil {
			if v, ok := pub["status"].(string); ok && v != "" {
				status = v
			}
		}
	}
	return &StatusView{
		SessionToken: sess.SessionToken,
		Status:       status,
		Verified:     sess.VerifiedAt != nil,
		VerifiedAt:   sess.VerifiedAt,
		CreatedAt:    sess.CreatedAt,
	}, nil
}

// inTx runs fn in a transaction, or directly when no runner is wired.
func (s *pinRouter) inTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if s.deps.Tx == nil {
		return fn(dbctx.Context{Ctx: ctx})
	}
	return s.deps.Tx.InTx(ctx, fn)
}

// callAdvertiser runs req through the retry budget and reports the latency of
// the whole exchange. A nil payload with an error means no usable answer.
func (s *pinRouter) callAdvertiser(ctx context.Context, step string, req advclient.Request) (any, time.Duration, error) {
	start := time.Now()
	raw, err := retryCall(ctx, s.cfg, func(ctx context.Context) (any, error) {
		out, err := s.deps.Client.Do(ctx, req)
		s.deps.Obs.IncAdvertiserAttempt(step, err == nil)
		return out, err
	}, func(attempt int, err error) {
		s.log.Warn("advertiser attempt failed", "step", step, "attempt", attempt, "url", req.URL, "error", err)
	})
	return raw, time.Since(start), err
}

func (s *pinRouter) audit(ctx context.Context, token uuid.UUID, step string, entries ...auditEntry) {
	if s.deps.Recorder == nil || len(entries) == 0 {
		return
	}
	rows := make([]*types.PinRequestLog, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &types.PinRequestLog{
			SessionToken: token,
			Step:         step,
			Direction:    e.direction,
			Payload:      jsonOf(e.payload),
		})
	}
	s.deps.Recorder.RecordLogs(ctx, rows...)
}

type auditEntry struct {
	direction string
	payload   any
}

func entry(direction string, payload any) auditEntry {
	return auditEntry{direction: direction, payload: payload}
}

// failed converts an unexpected error into the FAILED payload. Coded request
// errors are returned to the caller instead.
func (s *pinRouter) failed(step string, token uuid.UUID, err error) (*Response, error) {
	switch apierr.CodeOf(err) {
	case apierr.CodeValidation, apierr.CodeNotFound, apierr.CodeNoOfferAvailable:
		return nil, err
	}
	s.log.Error("pin operation failed", "step", step, "session_token", token, "error", err)
	s.deps.Obs.IncOutcome(step, pin.StatusFailed)
	return toResponse(normalize.Failed(""), token), nil
}

func (s *pinRouter) recoverFailed(step string, token *uuid.UUID, resp **Response, err *error) {
	r := recover()
	if r == nil {
		return
	}
	s.log.Error("pin operation panic", "step", step, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
	s.deps.Obs.IncOutcome(step, pin.StatusFailed)
	*resp = toResponse(normalize.Failed(""), *token)
	*err = nil
}

func toResponse(p normalize.Payload, token uuid.UUID) *Response {
	body := make(map[string]any, len(p.Body)+1)
	for k, v := range p.Body {
		body[k] = v
	}
	resp := &Response{Status: p.Status, HTTPCode: p.HTTPCode, Body: body}
	if token != uuid.Nil {
		resp.SessionToken = token.String()
		body["session_token"] = resp.SessionToken
	}
	return resp
}

func jsonOf(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"unencodable": fmt.Sprint(v)})
	}
	return datatypes.JSON(b)
}
