package pin

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PinSession records one end-to-end PIN transaction. It is created in INIT
// before the advertiser is called and mutated at each phase transition.
type PinSession struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionToken uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"session_token"`

	OfferID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"offer_id"`
	AdvertiserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"advertiser_id"`
	PublisherID      *uuid.UUID `gorm:"type:uuid;index" json:"publisher_id,omitempty"`
	PublisherOfferID *uuid.UUID `gorm:"type:uuid" json:"publisher_offer_id,omitempty"`

	MSISDN string         `gorm:"column:msisdn;index" json:"msisdn"`
	Params datatypes.JSON `gorm:"column:params" json:"params,omitempty"`
	Status string         `gorm:"column:status;not null;index" json:"status"`
	Held   bool           `gorm:"column:held;not null;default:false" json:"held"`

	AdvSessionKey *string `gorm:"column:adv_session_key" json:"adv_session_key,omitempty"`

	AdvRequest  datatypes.JSON `gorm:"column:adv_request" json:"adv_request,omitempty"`
	AdvResponse datatypes.JSON `gorm:"column:adv_response" json:"adv_response,omitempty"`
	PubRequest  datatypes.JSON `gorm:"column:pub_request" json:"pub_request,omitempty"`
	PubResponse datatypes.JSON `gorm:"column:pub_response" json:"pub_response,omitempty"`

	VerifiedAt *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (PinSession) TableName() string { return "pin_session" }

func (s *PinSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// HasAdvSessionKey reports whether a prior PIN-Send stored the advertiser's
// correlation key, which PIN-Verify requires.
func (s *PinSession) HasAdvSessionKey() bool {
	return s != nil && s.AdvSessionKey != nil && *s.AdvSessionKey != ""
}
