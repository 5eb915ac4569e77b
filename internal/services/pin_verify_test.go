package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos"
	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos/testutil"
	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
)

func TestPinVerifyReplayDoesNotRebook(t *testing.T) {
	ctx := context.Background()
	var host string
	h := newHarness(t, PinRouterConfig{}, fixed(0.5), advertiserStub(&host))
	adv := testutil.SeedAdvertiser(t, ctx, h.db, "adv", "IN")
	offer := testutil.SeedOffer(t, ctx, h.db, adv.ID, "IN", "VI", testutil.WithURLs("http://adv.test/send", "http://adv.test/verify"))
	pub := testutil.SeedPublisher(t, ctx, h.db, "pub")
	testutil.SeedPublisherOffer(t, ctx, h.db, pub.ID, offer.ID, 1, 100)

	resp, err := h.router.PinSend(ctx, SendRequest{PublisherID: &pub.ID, Geo: "IN", Carrier: "VI", Params: map[string]string{"msisdn": "919800000040"}})
	if err != nil || resp.Status != pin.StatusOTPSent {
		t.Fatalf("PinSend: resp=%+v err=%v", resp, err)
	}
	first, err := h.router.PinVerify(ctx, VerifyRequest{SessionToken: resp.SessionToken, OTP: "1234"})
	if err != nil || first.Status != pin.StatusSuccess {
		t.Fatalf("PinVerify: resp=%+v err=%v", first, err)
	}
	verifiedAt := h.session(t, resp.SessionToken).VerifiedAt
	if verifiedAt == nil {
		t.Fatalf("verified_at not set")
	}

	for i := 0; i < 2; i++ {
		again, err := h.router.PinVerify(ctx, VerifyRequest{SessionToken: resp.SessionToken, OTP: "9999"})
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if again.Status != pin.StatusSuccess || again.HTTPCode != http.StatusOK || again.Body["session_token"] != resp.SessionToken {
			t.Fatalf("replay %d resp=%+v", i, again)
		}
	}
	if got := h.calls.Load(); got != 2 {
		t.Fatalf("advertiser calls=%d want 2", got)
	}
	if convs := h.conversions(t, resp.SessionToken); len(convs) != 1 {
		t.Fatalf("conversions=%d want 1", len(convs))
	}
	if got := h.session(t, resp.SessionToken).VerifiedAt; got == nil || !got.Equal(*verifiedAt) {
		t.Fatalf("verified_at moved from %v to %v", verifiedAt, got)
	}
}

// racingSessions lets another verify win between the session load and the
// conversion insert.
type racingSessions struct {
	repos.PinSessionRepo
	once  sync.Once
	other func(sess *types.PinSession)
}

func (r *racingSessions) GetByToken(dbc dbctx.Context, token uuid.UUID) (*types.PinSession, error) {
	sess, err := r.PinSessionRepo.GetByToken(dbc, token)
	if err == nil && sess != nil && sess.Status == pin.StatusOTPSent {
		r.once.Do(func() { r.other(sess) })
	}
	return sess, err
}

func TestPinVerifyConcurrentWinnerKeepsSingleConversion(t *testing.T) {
	ctx := context.Background()
	var host string
	var h *harness
	h = newHarnessWith(t, PinRouterConfig{}, fixed(0.5), advertiserStub(&host), func(d *PinRouterDeps) {
		d.Sessions = &racingSessions{
			PinSessionRepo: d.Sessions,
			other: func(sess *types.PinSession) {
				dbc := dbctx.Context{Ctx: ctx}
				log := testutil.Logger(t)
				if err := repos.NewPinSessionRepo(h.db, log).UpdateFields(dbc, sess.ID, map[string]interface{}{
					"status":       pin.StatusSuccess,
					"verified_at":  time.Now().UTC(),
					"pub_response": datatypes.JSON([]byte(`{"status":"SUCCESS","message":"first"}`)),
				}); err != nil {
					t.Fatalf("UpdateFields: %v", err)
				}
				if err := repos.NewConversionRepo(h.db, log).Create(dbc, &types.Conversion{
					SessionToken: sess.SessionToken,
					OfferID:      sess.OfferID,
					Status:       pin.StatusSuccess,
				}); err != nil {
					t.Fatalf("Create conversion: %v", err)
				}
			},
		}
	})
	adv := testutil.SeedAdvertiser(t, ctx, h.db, "adv", "IN")
	offer := testutil.SeedOffer(t, ctx, h.db, adv.ID, "IN", "VI", testutil.WithURLs("http://adv.test/send", "http://adv.test/verify"))

	resp, err := h.router.PinSend(ctx, SendRequest{OfferID: &offer.ID, Params: map[string]string{"msisdn": "919800000041"}})
	if err != nil || resp.Status != pin.StatusOTPSent {
		t.Fatalf("PinSend: resp=%+v err=%v", resp, err)
	}
	vresp, err := h.router.PinVerify(ctx, VerifyRequest{SessionToken: resp.SessionToken, OTP: "1234"})
	if err != nil {
		t.Fatalf("PinVerify: %v", err)
	}
	if vresp.Status != pin.StatusSuccess || vresp.HTTPCode != http.StatusOK || vresp.Body["message"] != "first" {
		t.Fatalf("resp=%+v", vresp)
	}
	if convs := h.conversions(t, resp.SessionToken); len(convs) != 1 {
		t.Fatalf("conversions=%d want 1", len(convs))
	}
}
