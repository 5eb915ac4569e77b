package offers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Advertiser struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"column:name;not null" json:"name"`
	Geo    string    `gorm:"column:geo;index" json:"geo"`
	Active bool      `gorm:"column:active;not null;index" json:"active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Advertiser) TableName() string { return "advertiser" }

func (a *Advertiser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
