package sessions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type PinRequestLogRepo interface {
	Create(dbc dbctx.Context, rows []*types.PinRequestLog) error
	ListBySessionToken(dbc dbctx.Context, token uuid.UUID) ([]*types.PinRequestLog, error)
}

type pinRequestLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPinRequestLogRepo(db *gorm.DB, baseLog *logger.Logger) PinRequestLogRepo {
	return &pinRequestLogRepo{
		db:  db,
		log: baseLog.With("repo", "PinRequestLogRepo"),
	}
}

func (r *pinRequestLogRepo) Create(dbc dbctx.Context, rows []*types.PinRequestLog) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *pinRequestLogRepo) ListBySessionToken(dbc dbctx.Context, token uuid.UUID) ([]*types.PinRequestLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PinRequestLog
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_token = ?", token).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
