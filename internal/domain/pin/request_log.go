package pin

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PinRequestLog is the append-only audit trail of payloads exchanged with
// publishers and advertisers.
type PinRequestLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionToken uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_token"`
	Step         string         `gorm:"column:step;not null" json:"step"`
	Direction    string         `gorm:"column:direction;not null" json:"direction"`
	Payload      datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
}

func (PinRequestLog) TableName() string { return "pin_request_log" }

func (l *PinRequestLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
