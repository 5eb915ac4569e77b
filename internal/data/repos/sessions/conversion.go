package sessions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type ConversionRepo interface {
	Create(dbc dbctx.Context, c *types.Conversion) error
	ListBySessionToken(dbc dbctx.Context, token uuid.UUID) ([]*types.Conversion, error)
}

type conversionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversionRepo(db *gorm.DB, baseLog *logger.Logger) ConversionRepo {
	return &conversionRepo{
		db:  db,
		log: baseLog.With("repo", "ConversionRepo"),
	}
}

func (r *conversionRepo) Create(dbc dbctx.Context, c *types.Conversion) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(c).Error
}

func (r *conversionRepo) ListBySessionToken(dbc dbctx.Context, token uuid.UUID) ([]*types.Conversion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Conversion
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_token = ?", token).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
