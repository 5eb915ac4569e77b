package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos/testutil"
	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/apierr"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
)

func TestPinSessionRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewPinSessionRepo(db, testutil.Logger(t))

	s := &types.PinSession{
		SessionToken: uuid.New(),
		OfferID:      uuid.New(),
		AdvertiserID: uuid.New(),
		MSISDN:       "919800000001",
		Params:       datatypes.JSON([]byte(`{"msisdn":"919800000001"}`)),
		Status:       pin.StatusInit,
	}
	if err := repo.Create(dbc, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == uuid.Nil {
		t.Fatalf("expected id assigned")
	}

	got, err := repo.GetByToken(dbc, s.SessionToken)
	if err != nil || got == nil {
		t.Fatalf("GetByToken: got=%v err=%v", got, err)
	}
	if got.Status != pin.StatusInit || got.HasAdvSessionKey() {
		t.Fatalf("unexpected initial state: %+v", got)
	}

	now := time.Now().UTC()
	if err := repo.UpdateFields(dbc, s.ID, map[string]interface{}{
		"status":          pin.StatusOTPSent,
		"adv_session_key": "abc",
		"verified_at":     now,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ = repo.GetByToken(dbc, s.SessionToken)
	if got.Status != pin.StatusOTPSent || !got.HasAdvSessionKey() || *got.AdvSessionKey != "abc" {
		t.Fatalf("after update: %+v", got)
	}
	if got.VerifiedAt == nil {
		t.Fatalf("verified_at not stored")
	}

	if missing, err := repo.GetByToken(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("unknown token: got=%v err=%v", missing, err)
	}

	dup := &types.PinSession{SessionToken: s.SessionToken, OfferID: s.OfferID, AdvertiserID: s.AdvertiserID, Status: pin.StatusInit}
	if err := repo.Create(dbc, dup); err == nil {
		t.Fatalf("expected unique violation on session_token")
	}
}

func TestConversionAndRequestLogRepos(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	convRepo := NewConversionRepo(db, testutil.Logger(t))
	logRepo := NewPinRequestLogRepo(db, testutil.Logger(t))

	token := uuid.New()
	if err := convRepo.Create(dbc, &types.Conversion{
		SessionToken: token,
		OfferID:      uuid.New(),
		Status:       pin.StatusHold,
		Payout:       decimal.Zero,
		CPA:          decimal.Zero,
	}); err != nil {
		t.Fatalf("Create conversion: %v", err)
	}
	convs, err := convRepo.ListBySessionToken(dbc, token)
	if err != nil || len(convs) != 1 || convs[0].Status != pin.StatusHold || !convs[0].Payout.IsZero() {
		t.Fatalf("ListBySessionToken: %v err=%v", convs, err)
	}
	dup := &types.Conversion{SessionToken: token, OfferID: uuid.New(), Status: pin.StatusHold}
	if err := convRepo.Create(dbc, dup); !apierr.IsCode(apierr.MapError("conversion", err), apierr.CodeConflict) {
		t.Fatalf("duplicate conversion err=%v", err)
	}
	if err := convRepo.Create(dbc, &types.Conversion{SessionToken: token, OfferID: uuid.New(), Status: pin.StatusSuccess}); err != nil {
		t.Fatalf("second status for session: %v", err)
	}

	if err := logRepo.Create(dbc, []*types.PinRequestLog{
		{SessionToken: token, Step: pin.StepPinSend, Direction: pin.DirectionPublisherRequest, Payload: datatypes.JSON([]byte(`{}`))},
		{SessionToken: token, Step: pin.StepPinSend, Direction: pin.DirectionAdvertiserRequest, Payload: datatypes.JSON([]byte(`{}`))},
	}); err != nil {
		t.Fatalf("Create logs: %v", err)
	}
	logs, err := logRepo.ListBySessionToken(dbc, token)
	if err != nil || len(logs) != 2 {
		t.Fatalf("ListBySessionToken logs: len=%d err=%v", len(logs), err)
	}
	if err := logRepo.Create(dbc, nil); err != nil {
		t.Fatalf("empty Create: %v", err)
	}
}
