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

type OfferParameterRepo interface {
	ListByOfferID(dbc dbctx.Context, offerID uuid.UUID) ([]*types.OfferParameter, error)
	// Map flattens an offer's static parameters into key/value form.
	Map(dbc dbctx.Context, offerID uuid.UUID) (map[string]string, error)
	Upsert(dbc dbctx.Context, offerID uuid.UUID, key, value string) error
}

type offerParameterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOfferParameterRepo(db *gorm.DB, baseLog *logger.Logger) OfferParameterRepo {
	return &offerParameterRepo{
		db:  db,
		log: baseLog.With("repo", "OfferParameterRepo"),
	}
}

func (r *offerParameterRepo) ListByOfferID(dbc dbctx.Context, offerID uuid.UUID) ([]*types.OfferParameter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.OfferParameter
	if offerID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("offer_id = ?", offerID).
		Order("param_key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *offerParameterRepo) Map(dbc dbctx.Context, offerID uuid.UUID) (map[string]string, error) {
	rows, err := r.ListByOfferID(dbc, offerID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, p := range rows {
		if p == nil || p.ParamKey == "" {
			continue
		}
		out[p.ParamKey] = p.ParamValue
	}
	return out, nil
}

func (r *offerParameterRepo) Upsert(dbc dbctx.Context, offerID uuid.UUID, key, value string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	row := &types.OfferParameter{
		OfferID:    offerID,
		ParamKey:   key,
		ParamValue: value,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "offer_id"}, {Name: "param_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"param_value", "updated_at"}),
		}).
		Create(row).Error
}
