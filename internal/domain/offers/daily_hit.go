package offers

import (
	"time"

	"github.com/google/uuid"
)

const (
	HitScopeOffer          = "offer"
	HitScopePublisherOffer = "publisher_offer"
)

// DailyHit is an additive counter keyed by (scope, ref_id, day). It is only
// ever written through an increment-on-conflict upsert.
type DailyHit struct {
	Scope string    `gorm:"column:scope;primaryKey;size:32" json:"scope"`
	RefID uuid.UUID `gorm:"column:ref_id;type:uuid;primaryKey" json:"ref_id"`
	Day   string    `gorm:"column:day;primaryKey;size:10" json:"day"`
	Hits  int64     `gorm:"column:hits;not null;default:0" json:"hits"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DailyHit) TableName() string { return "daily_hit" }

// DayKey formats t as the UTC calendar day used for counter keys.
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }
