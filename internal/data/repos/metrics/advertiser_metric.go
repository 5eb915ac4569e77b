package metrics

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type AdvertiserMetricRepo interface {
	// Record folds one terminal outcome into the advertiser's rolling counters.
	Record(dbc dbctx.Context, advertiserID uuid.UUID, success bool, latencyMS float64) error
	GetByAdvertiserID(dbc dbctx.Context, advertiserID uuid.UUID) (*types.AdvertiserMetric, error)
}

type advertiserMetricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdvertiserMetricRepo(db *gorm.DB, baseLog *logger.Logger) AdvertiserMetricRepo {
	return &advertiserMetricRepo{
		db:  db,
		log: baseLog.With("repo", "AdvertiserMetricRepo"),
	}
}

// Counters are additive on conflict. avg_latency_ms is the two-point average
// of the stored value and the new sample, which is not a true mean.
func (r *advertiserMetricRepo) Record(dbc dbctx.Context, advertiserID uuid.UUID, success bool, latencyMS float64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if advertiserID == uuid.Nil {
		return nil
	}
	if latencyMS < 0 {
		latencyMS = 0
	}
	var s, f int64
	if success {
		s = 1
	} else {
		f = 1
	}
	row := &types.AdvertiserMetric{
		AdvertiserID: advertiserID,
		Successes:    s,
		Failures:     f,
		SuccessRate:  pin.ComputeSuccessRate(s, f),
		AvgLatencyMS: latencyMS,
		UpdatedAt:    time.Now().UTC(),
	}

	const (
		succ  = "(advertiser_metric.successes + excluded.successes)"
		fail  = "(advertiser_metric.failures + excluded.failures)"
		total = "(" + succ + " + " + fail + ")"
	)
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "advertiser_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"successes":    gorm.Expr(succ),
				"failures":     gorm.Expr(fail),
				"success_rate": gorm.Expr("CASE WHEN " + total + " > 0 THEN " + succ + " * 1.0 / " + total + " ELSE 0 END"),
				"avg_latency_ms": gorm.Expr(
					"CASE WHEN advertiser_metric.avg_latency_ms > 0 " +
						"THEN (advertiser_metric.avg_latency_ms + excluded.avg_latency_ms) / 2 " +
						"ELSE excluded.avg_latency_ms END",
				),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(row).Error
}

func (r *advertiserMetricRepo) GetByAdvertiserID(dbc dbctx.Context, advertiserID uuid.UUID) (*types.AdvertiserMetric, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.AdvertiserMetric
	if err := transaction.WithContext(dbc.Ctx).
		Where("advertiser_id = ?", advertiserID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
