package offers

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type PublisherOfferRepo interface {
	Create(dbc dbctx.Context, rows []*types.PublisherOffer) ([]*types.PublisherOffer, error)
	// ListActiveForPublisher returns active assignments whose offer is active and
	// matches geo and carrier, in stable creation order with Offer preloaded.
	ListActiveForPublisher(dbc dbctx.Context, publisherID uuid.UUID, geo, carrier string) ([]*types.PublisherOffer, error)
	GetForPublisherOffer(dbc dbctx.Context, publisherID, offerID uuid.UUID) (*types.PublisherOffer, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PublisherOffer, error)
}

type publisherOfferRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPublisherOfferRepo(db *gorm.DB, baseLog *logger.Logger) PublisherOfferRepo {
	return &publisherOfferRepo{
		db:  db,
		log: baseLog.With("repo", "PublisherOfferRepo"),
	}
}

func (r *publisherOfferRepo) Create(dbc dbctx.Context, rows []*types.PublisherOffer) ([]*types.PublisherOffer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.PublisherOffer{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Omit("Offer").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *publisherOfferRepo) ListActiveForPublisher(dbc dbctx.Context, publisherID uuid.UUID, geo, carrier string) ([]*types.PublisherOffer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PublisherOffer
	if publisherID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Joins("JOIN offer ON offer.id = publisher_offer.offer_id").
		Where("publisher_offer.publisher_id = ? AND publisher_offer.active = ?", publisherID, true).
		Where("offer.active = ? AND offer.geo = ? AND offer.carrier = ?", true, geo, carrier).
		Order("publisher_offer.created_at ASC").
		Order("publisher_offer.id ASC").
		Preload("Offer").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *publisherOfferRepo) GetForPublisherOffer(dbc dbctx.Context, publisherID, offerID uuid.UUID) (*types.PublisherOffer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if publisherID == uuid.Nil || offerID == uuid.Nil {
		return nil, nil
	}
	var out []*types.PublisherOffer
	if err := transaction.WithContext(dbc.Ctx).
		Where("publisher_id = ? AND offer_id = ?", publisherID, offerID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *publisherOfferRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PublisherOffer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.PublisherOffer
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
