package sessions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type PinSessionRepo interface {
	Create(dbc dbctx.Context, s *types.PinSession) error
	// GetByToken always reads the store; nil when the token is unknown.
	GetByToken(dbc dbctx.Context, token uuid.UUID) (*types.PinSession, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type pinSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPinSessionRepo(db *gorm.DB, baseLog *logger.Logger) PinSessionRepo {
	return &pinSessionRepo{
		db:  db,
		log: baseLog.With("repo", "PinSessionRepo"),
	}
}

func (r *pinSessionRepo) Create(dbc dbctx.Context, s *types.PinSession) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(s).Error
}

func (r *pinSessionRepo) GetByToken(dbc dbctx.Context, token uuid.UUID) (*types.PinSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if token == uuid.Nil {
		return nil, nil
	}
	var out []*types.PinSession
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_token = ?", token).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *pinSessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.PinSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}
