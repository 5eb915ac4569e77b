package pin

import (
	"time"

	"github.com/google/uuid"
)

// AdvertiserMetric holds rolling per-advertiser outcome counters read by the
// adaptive router. AvgLatencyMS is a two-point running average, not a true mean.
type AdvertiserMetric struct {
	AdvertiserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"advertiser_id"`
	Successes    int64     `gorm:"column:successes;not null;default:0" json:"successes"`
	Failures     int64     `gorm:"column:failures;not null;default:0" json:"failures"`
	SuccessRate  float64   `gorm:"column:success_rate;not null;default:0" json:"success_rate"`
	AvgLatencyMS float64   `gorm:"column:avg_latency_ms;not null;default:0" json:"avg_latency_ms"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (AdvertiserMetric) TableName() string { return "advertiser_metric" }

// ComputeSuccessRate is successes / (successes + failures), 0 without observations.
func ComputeSuccessRate(successes, failures int64) float64 {
	total := successes + failures
	if total <= 0 {
		return 0
	}
	return float64(successes) / float64(total)
}
