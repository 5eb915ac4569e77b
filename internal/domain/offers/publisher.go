package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Publisher struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"column:name;not null" json:"name"`
	Active bool      `gorm:"column:active;not null" json:"active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Publisher) TableName() string { return "publisher" }

func (p *Publisher) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PublisherOffer assigns an offer to a publisher. Weight is the relative
// selection probability inside a geo/carrier bucket; PassPercent is the chance
// a matched request is not held back.
type PublisherOffer struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PublisherID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_publisher_offer" json:"publisher_id"`
	OfferID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_publisher_offer" json:"offer_id"`

	CPA         decimal.Decimal `gorm:"column:cpa;type:numeric(12,4);not null;default:0" json:"cpa"`
	Weight      int             `gorm:"column:weight;not null" json:"weight"`
	PassPercent int             `gorm:"column:pass_percent;not null" json:"pass_percent"`
	DailyCap    int64           `gorm:"column:daily_cap;not null;default:0" json:"daily_cap"`
	Active      bool            `gorm:"column:active;not null;index" json:"active"`

	Offer *Offer `gorm:"foreignKey:OfferID;references:ID" json:"offer,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PublisherOffer) TableName() string { return "publisher_offer" }

func (p *PublisherOffer) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
