package offers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type DailyHitRepo interface {
	// Increment adds n hits in a single upsert so concurrent writers never lose updates.
	Increment(dbc dbctx.Context, scope string, refID uuid.UUID, day string, n int64) error
	Get(dbc dbctx.Context, scope string, refID uuid.UUID, day string) (int64, error)
	Total(dbc dbctx.Context, scope string, refID uuid.UUID) (int64, error)
}

type dailyHitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyHitRepo(db *gorm.DB, baseLog *logger.Logger) DailyHitRepo {
	return &dailyHitRepo{
		db:  db,
		log: baseLog.With("repo", "DailyHitRepo"),
	}
}

func (r *dailyHitRepo) Increment(dbc dbctx.Context, scope string, refID uuid.UUID, day string, n int64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if refID == uuid.Nil || n == 0 {
		return nil
	}
	now := time.Now().UTC()
	row := &types.DailyHit{
		Scope:     scope,
		RefID:     refID,
		Day:       day,
		Hits:      n,
		UpdatedAt: now,
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "scope"}, {Name: "ref_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"hits":       gorm.Expr("daily_hit.hits + excluded.hits"),
				"updated_at": now,
			}),
		}).
		Create(row).Error
}

func (r *dailyHitRepo) Get(dbc dbctx.Context, scope string, refID uuid.UUID, day string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var hits int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.DailyHit{}).
		Select("COALESCE(SUM(hits), 0)").
		Where("scope = ? AND ref_id = ? AND day = ?", scope, refID, day).
		Scan(&hits).Error; err != nil {
		return 0, err
	}
	return hits, nil
}

func (r *dailyHitRepo) Total(dbc dbctx.Context, scope string, refID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var hits int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.DailyHit{}).
		Select("COALESCE(SUM(hits), 0)").
		Where("scope = ? AND ref_id = ?", scope, refID).
		Scan(&hits).Error; err != nil {
		return 0, err
	}
	return hits, nil
}
