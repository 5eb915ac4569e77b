package offers

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type AdvertiserRepo interface {
	Create(dbc dbctx.Context, advertisers []*types.Advertiser) ([]*types.Advertiser, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Advertiser, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Advertiser, error)
}

type advertiserRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdvertiserRepo(db *gorm.DB, baseLog *logger.Logger) AdvertiserRepo {
	return &advertiserRepo{
		db:  db,
		log: baseLog.With("repo", "AdvertiserRepo"),
	}
}

func (r *advertiserRepo) Create(dbc dbctx.Context, advertisers []*types.Advertiser) ([]*types.Advertiser, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(advertisers) == 0 {
		return []*types.Advertiser{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&advertisers).Error; err != nil {
		return nil, err
	}
	return advertisers, nil
}

func (r *advertiserRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Advertiser, error) {
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *advertiserRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Advertiser, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Advertiser
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
