package pin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Conversion captures the business outcome of a transaction. HOLD rows are
// written before any advertiser call and carry zero payout. A session holds at
// most one conversion per status.
type Conversion struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionToken     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversion_session_status,priority:1" json:"session_token"`
	OfferID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"offer_id"`
	PublisherID      *uuid.UUID `gorm:"type:uuid;index" json:"publisher_id,omitempty"`
	PublisherOfferID *uuid.UUID `gorm:"type:uuid" json:"publisher_offer_id,omitempty"`
	MSISDN           string     `gorm:"column:msisdn" json:"msisdn"`

	Status string          `gorm:"column:status;not null;index;uniqueIndex:idx_conversion_session_status,priority:2" json:"status"`
	Payout decimal.Decimal `gorm:"column:payout;type:numeric(12,4);not null;default:0" json:"payout"`
	CPA    decimal.Decimal `gorm:"column:cpa;type:numeric(12,4);not null;default:0" json:"cpa"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Conversion) TableName() string { return "conversion" }

func (c *Conversion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
