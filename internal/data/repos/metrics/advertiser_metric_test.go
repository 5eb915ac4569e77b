package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos/testutil"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
)

func TestAdvertiserMetricRepoRecord(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewAdvertiserMetricRepo(db, testutil.Logger(t))

	adv := uuid.New()
	if m, err := repo.GetByAdvertiserID(dbc, adv); err != nil || m != nil {
		t.Fatalf("expected no metric yet: m=%v err=%v", m, err)
	}

	if err := repo.Record(dbc, adv, true, 100); err != nil {
		t.Fatalf("Record 1: %v", err)
	}
	m, err := repo.GetByAdvertiserID(dbc, adv)
	if err != nil || m == nil {
		t.Fatalf("GetByAdvertiserID: m=%v err=%v", m, err)
	}
	if m.Successes != 1 || m.Failures != 0 || m.SuccessRate != 1 || m.AvgLatencyMS != 100 {
		t.Fatalf("after first record: %+v", m)
	}

	if err := repo.Record(dbc, adv, false, 300); err != nil {
		t.Fatalf("Record 2: %v", err)
	}
	if err := repo.Record(dbc, adv, false, 200); err != nil {
		t.Fatalf("Record 3: %v", err)
	}
	m, _ = repo.GetByAdvertiserID(dbc, adv)
	if m.Successes != 1 || m.Failures != 2 {
		t.Fatalf("counters: %+v", m)
	}
	if math.Abs(m.SuccessRate-1.0/3.0) > 1e-9 {
		t.Fatalf("success rate=%v", m.SuccessRate)
	}
	// (100+300)/2 = 200, then (200+200)/2 = 200
	if m.AvgLatencyMS != 200 {
		t.Fatalf("avg latency=%v", m.AvgLatencyMS)
	}
}

func TestAdvertiserMetricRepoIgnoresNilAdvertiser(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAdvertiserMetricRepo(db, testutil.Logger(t))
	if err := repo.Record(dbctx.Context{Ctx: context.Background()}, uuid.Nil, true, 10); err != nil {
		t.Fatalf("Record nil: %v", err)
	}
}
