package offers

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type OfferRepo interface {
	Create(dbc dbctx.Context, offers []*types.Offer) ([]*types.Offer, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Offer, error)
	// ListActiveByGeoCarrier returns active offers for a bucket, highest payout first.
	ListActiveByGeoCarrier(dbc dbctx.Context, geo, carrier string) ([]*types.Offer, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type offerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOfferRepo(db *gorm.DB, baseLog *logger.Logger) OfferRepo {
	return &offerRepo{
		db:  db,
		log: baseLog.With("repo", "OfferRepo"),
	}
}

func (r *offerRepo) Create(dbc dbctx.Context, offers []*types.Offer) ([]*types.Offer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(offers) == 0 {
		return []*types.Offer{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *offerRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Offer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Offer
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *offerRepo) ListActiveByGeoCarrier(dbc dbctx.Context, geo, carrier string) ([]*types.Offer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Offer
	if err := transaction.WithContext(dbc.Ctx).
		Where("active = ? AND geo = ? AND carrier = ?", true, geo, carrier).
		Order("payout DESC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *offerRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Offer{}).
		Where("id = ?", id).
		Updates(updates).Error
}
