package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos"
	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos/testutil"
	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	domainoffers "github.com/Anil1013/mob13r-platform-sub000/internal/domain/offers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/fraud"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
)

// advertiserStub answers send and verify calls with a success and remembers
// the host of the last call.
func advertiserStub(host *string) roundTripperFunc {
	return func(req *http.Request) (*http.Response, error) {
		*host = req.URL.Host
		if strings.HasSuffix(req.URL.Path, "/verify") {
			return jsonResponse(http.StatusOK, `{"status":true}`), nil
		}
		return jsonResponse(http.StatusOK, `{"status":true,"sessionKey":"k1"}`), nil
	}
}

func seedMetrics(t *testing.T, h *harness, advertiserID uuid.UUID, success bool, latencyMS float64, n int) {
	t.Helper()
	repo := repos.NewAdvertiserMetricRepo(h.db, testutil.Logger(t))
	for i := 0; i < n; i++ {
		if err := repo.Record(dbctx.Context{Ctx: context.Background()}, advertiserID, success, latencyMS); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
}

func (h *harness) hits(t *testing.T, scope string, ref uuid.UUID) int64 {
	t.Helper()
	n, err := repos.NewDailyHitRepo(h.db, testutil.Logger(t)).Get(dbctx.Context{Ctx: context.Background()}, scope, ref, domainoffers.DayKey(time.Now()))
	if err != nil {
		t.Fatalf("hits: %v", err)
	}
	return n
}

type failingMetrics struct {
	repos.AdvertiserMetricRepo
}

func (failingMetrics) GetByAdvertiserID(dbctx.Context, uuid.UUID) (*types.AdvertiserMetric, error) {
	return nil, errors.New("metrics store down")
}

func TestPinSendAdaptiveOverrideRoutesToBestAdvertiser(t *testing.T) {
	ctx := context.Background()
	var host string
	h := newHarness(t, PinRouterConfig{AdaptiveRouting: true}, fixed(0.5), advertiserStub(&host))

	slow := testutil.SeedAdvertiser(t, ctx, h.db, "slow", "IN")
	fast := testutil.SeedAdvertiser(t, ctx, h.db, "fast", "IN")
	requested := testutil.SeedOffer(t, ctx, h.db, slow.ID, "IN", "VI",
		testutil.WithURLs("http://a.test/send", "http://a.test/verify"), testutil.WithPayout("5.00"))
	testutil.SeedOffer(t, ctx, h.db, fast.ID, "IN", "VI",
		testutil.WithURLs("http://b-low.test/send", "http://b-low.test/verify"), testutil.WithPayout("1.00"))
	best := testutil.SeedOffer(t, ctx, h.db, fast.ID, "IN", "VI",
		testutil.WithURLs("http://b-high.test/send", "http://b-high.test/verify"), testutil.WithPayout("2.00"))
	capped := testutil.SeedOffer(t, ctx, h.db, fast.ID, "IN", "VI",
		testutil.WithURLs("http://b-capped.test/send", "http://b-capped.test/verify"), testutil.WithPayout("9.00"), testutil.WithDailyCap(1))
	if err := repos.NewDailyHitRepo(h.db, testutil.Logger(t)).Increment(dbctx.Context{Ctx: ctx}, domainoffers.HitScopeOffer, capped.ID, domainoffers.DayKey(time.Now()), 1); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	seedMetrics(t, h, slow.ID, false, 900, 3)
	seedMetrics(t, h, fast.ID, true, 40, 3)

	resp, err := h.router.PinSend(ctx, SendRequest{OfferID: &requested.ID, Params: map[string]string{"msisdn": "919800000020"}})
	if err != nil {
		t.Fatalf("PinSend: %v", err)
	}
	if resp.Status != pin.StatusOTPSent {
		t.Fatalf("resp=%+v", resp)
	}
	if host != "b-high.test" {
		t.Fatalf("called %s, want the best usable offer of the winning advertiser", host)
	}
	sess := h.session(t, resp.SessionToken)
	if sess.OfferID != best.ID || sess.AdvertiserID != fast.ID {
		t.Fatalf("session offer=%s advertiser=%s", sess.OfferID, sess.AdvertiserID)
	}
	if got := h.hits(t, domainoffers.HitScopeOffer, best.ID); got != 1 {
		t.Fatalf("override offer hits=%d", got)
	}
	if got := h.hits(t, domainoffers.HitScopeOffer, requested.ID); got != 0 {
		t.Fatalf("requested offer hits=%d", got)
	}
}

func TestPinSendAdaptiveOverrideKeepsOfferWhenScoringFails(t *testing.T) {
	ctx := context.Background()
	var host string
	h := newHarnessWith(t, PinRouterConfig{AdaptiveRouting: true}, fixed(0.5), advertiserStub(&host), func(d *PinRouterDeps) {
		d.Metrics = failingMetrics{AdvertiserMetricRepo: d.Metrics}
	})

	slow := testutil.SeedAdvertiser(t, ctx, h.db, "slow", "IN")
	fast := testutil.SeedAdvertiser(t, ctx, h.db, "fast", "IN")
	requested := testutil.SeedOffer(t, ctx, h.db, slow.ID, "IN", "VI", testutil.WithURLs("http://a.test/send", "http://a.test/verify"))
	testutil.SeedOffer(t, ctx, h.db, fast.ID, "IN", "VI", testutil.WithURLs("http://b.test/send", "http://b.test/verify"), testutil.WithPayout("3.00"))

	resp, err := h.router.PinSend(ctx, SendRequest{OfferID: &requested.ID, Params: map[string]string{"msisdn": "919800000021"}})
	if err != nil {
		t.Fatalf("PinSend: %v", err)
	}
	if resp.Status != pin.StatusOTPSent || host != "a.test" {
		t.Fatalf("resp=%+v host=%s", resp, host)
	}
	if got := h.session(t, resp.SessionToken).OfferID; got != requested.ID {
		t.Fatalf("session offer=%s want %s", got, requested.ID)
	}
}

func TestPinSendAdaptiveOverrideFollowsPublisherAssignments(t *testing.T) {
	ctx := context.Background()
	var host string
	h := newHarness(t, PinRouterConfig{AdaptiveRouting: true}, fixed(0.5), advertiserStub(&host))

	slow := testutil.SeedAdvertiser(t, ctx, h.db, "slow", "IN")
	fast := testutil.SeedAdvertiser(t, ctx, h.db, "fast", "IN")
	offerA := testutil.SeedOffer(t, ctx, h.db, slow.ID, "IN", "VI",
		testutil.WithURLs("http://a.test/send", "http://a.test/verify"), testutil.WithPayout("2.00"))
	offerB := testutil.SeedOffer(t, ctx, h.db, fast.ID, "IN", "VI",
		testutil.WithURLs("http://b.test/send", "http://b.test/verify"), testutil.WithPayout("3.00"))
	pub := testutil.SeedPublisher(t, ctx, h.db, "pub")
	poA := testutil.SeedPublisherOffer(t, ctx, h.db, pub.ID, offerA.ID, 100, 100)
	seedMetrics(t, h, slow.ID, false, 900, 3)
	seedMetrics(t, h, fast.ID, true, 40, 3)

	send := func(msisdn string) *Response {
		t.Helper()
		resp, err := h.router.PinSend(ctx, SendRequest{PublisherID: &pub.ID, Geo: "IN", Carrier: "VI", Params: map[string]string{"msisdn": msisdn}})
		if err != nil || resp.Status != pin.StatusOTPSent {
			t.Fatalf("PinSend: resp=%+v err=%v", resp, err)
		}
		return resp
	}
	verifiedCPA := func(resp *Response) string {
		t.Helper()
		vresp, err := h.router.PinVerify(ctx, VerifyRequest{SessionToken: resp.SessionToken, OTP: "1234"})
		if err != nil || vresp.Status != pin.StatusSuccess {
			t.Fatalf("PinVerify: resp=%+v err=%v", vresp, err)
		}
		convs := h.conversions(t, resp.SessionToken)
		if len(convs) != 1 {
			t.Fatalf("conversions=%+v", convs)
		}
		return convs[0].CPA.String()
	}

	// The publisher only carries offer A, so the better advertiser is out of reach.
	first := send("919800000022")
	if host != "a.test" {
		t.Fatalf("called %s", host)
	}
	sess := h.session(t, first.SessionToken)
	if sess.OfferID != offerA.ID || sess.PublisherOfferID == nil || *sess.PublisherOfferID != poA.ID {
		t.Fatalf("session offer=%s assignment=%v", sess.OfferID, sess.PublisherOfferID)
	}
	if cpa := verifiedCPA(first); cpa != "0.8" {
		t.Fatalf("cpa=%s want 0.8", cpa)
	}

	poB := testutil.SeedPublisherOffer(t, ctx, h.db, pub.ID, offerB.ID, 1, 100)
	if err := h.db.Model(&types.PublisherOffer{}).Where("id = ?", poB.ID).Update("cpa", decimal.RequireFromString("0.50")).Error; err != nil {
		t.Fatalf("update cpa: %v", err)
	}

	second := send("919800000023")
	if host != "b.test" {
		t.Fatalf("called %s", host)
	}
	sess = h.session(t, second.SessionToken)
	if sess.OfferID != offerB.ID || sess.PublisherOfferID == nil || *sess.PublisherOfferID != poB.ID {
		t.Fatalf("session offer=%s assignment=%v", sess.OfferID, sess.PublisherOfferID)
	}
	if got := h.hits(t, domainoffers.HitScopePublisherOffer, poB.ID); got != 1 {
		t.Fatalf("assignment B hits=%d", got)
	}
	if got := h.hits(t, domainoffers.HitScopePublisherOffer, poA.ID); got != 1 {
		t.Fatalf("assignment A hits=%d", got)
	}
	if cpa := verifiedCPA(second); cpa != "0.5" {
		t.Fatalf("cpa=%s want 0.5", cpa)
	}
}

type stubCounter struct {
	n   int64
	err error
}

func (c stubCounter) Incr(context.Context, string, time.Duration) (int64, error) { return c.n, c.err }

func TestPinSendFraudFailsClosed(t *testing.T) {
	cases := []struct {
		name    string
		counter fraud.Counter
		msisdn  string
		code    int
		message string
	}{
		{"invalid msisdn", nil, "12ab", http.StatusBadRequest, fraud.ErrInvalidMSISDN.Error()},
		{"velocity", stubCounter{n: 4}, "919800000030", http.StatusBadRequest, fraud.ErrVelocity.Error()},
		{"counter down", stubCounter{err: errors.New("redis: connection refused")}, "919800000031", http.StatusInternalServerError, "fraud check unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarnessWith(t, PinRouterConfig{}, fixed(0.5), func(req *http.Request) (*http.Response, error) {
				t.Fatalf("advertiser must not be called")
				return nil, nil
			}, func(d *PinRouterDeps) {
				d.Fraud = fraud.NewChecker(fraud.Config{VelocityLimit: 3}, tc.counter, testutil.Logger(t))
			})
			adv := testutil.SeedAdvertiser(t, ctx, h.db, "adv", "IN")
			offer := testutil.SeedOffer(t, ctx, h.db, adv.ID, "IN", "VI")

			resp, err := h.router.PinSend(ctx, SendRequest{OfferID: &offer.ID, Params: map[string]string{"msisdn": tc.msisdn}})
			if err != nil {
				t.Fatalf("PinSend: %v", err)
			}
			if resp.Status != pin.StatusFailed || resp.HTTPCode != tc.code || resp.Body["message"] != tc.message {
				t.Fatalf("resp=%+v", resp)
			}
			if resp.SessionToken != "" {
				t.Fatalf("rejected request got a session token")
			}
			var n int64
			if err := h.db.Model(&types.PinSession{}).Count(&n).Error; err != nil || n != 0 {
				t.Fatalf("sessions=%d err=%v", n, err)
			}
		})
	}
}
