package offers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferParameter is one entry of an offer's static parameter set.
type OfferParameter struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OfferID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_offer_param_key" json:"offer_id"`
	ParamKey   string    `gorm:"column:param_key;not null;uniqueIndex:idx_offer_param_key" json:"param_key"`
	ParamValue string    `gorm:"column:param_value" json:"param_value"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (OfferParameter) TableName() string { return "offer_parameter" }

func (p *OfferParameter) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
