package offers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Offer is an advertiser's carrier-billing subscription product for one
// geo/carrier. Rows are owned by the admin side; the routing engine only reads.
type Offer struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AdvertiserID uuid.UUID `gorm:"type:uuid;not null;index" json:"advertiser_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`

	Geo     string          `gorm:"column:geo;not null;index:idx_offer_geo_carrier" json:"geo"`
	Carrier string          `gorm:"column:carrier;not null;index:idx_offer_geo_carrier" json:"carrier"`
	Payout  decimal.Decimal `gorm:"column:payout;type:numeric(12,4);not null;default:0" json:"payout"`

	// Zero means uncapped.
	DailyCap int64 `gorm:"column:daily_cap;not null;default:0" json:"daily_cap"`
	TotalCap int64 `gorm:"column:total_cap;not null;default:0" json:"total_cap"`

	StatusCheckURL string `gorm:"column:status_check_url" json:"status_check_url,omitempty"`
	PinSendURL     string `gorm:"column:pin_send_url" json:"pin_send_url"`
	PinVerifyURL   string `gorm:"column:pin_verify_url" json:"pin_verify_url"`
	PortalURL      string `gorm:"column:portal_url" json:"portal_url,omitempty"`

	PinSendSpec   datatypes.JSON `gorm:"column:pin_send_spec" json:"pin_send_spec,omitempty"`
	PinVerifySpec datatypes.JSON `gorm:"column:pin_verify_spec" json:"pin_verify_spec,omitempty"`

	FallbackOfferID *uuid.UUID `gorm:"type:uuid;column:fallback_offer_id" json:"fallback_offer_id,omitempty"`
	Active          bool       `gorm:"column:active;not null;index" json:"active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Offer) TableName() string { return "offer" }

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// RequestSpec describes one advertiser call. Every string inside it may
// carry template placeholders.
type RequestSpec struct {
	Method  string         `json:"method,omitempty"`
	URL     string         `json:"url,omitempty"`
	Query   map[string]any `json:"query,omitempty"`
	Headers map[string]any `json:"headers,omitempty"`
	Body    any            `json:"body,omitempty"`
}

// SendSpec returns the PIN-Send request spec with the offer's pin-send URL as
// the default target.
func (o *Offer) SendSpec() (RequestSpec, error) {
	return decodeSpec(o.PinSendSpec, o.PinSendURL)
}

// VerifySpec returns the PIN-Verify request spec with the offer's pin-verify
// URL as the default target.
func (o *Offer) VerifySpec() (RequestSpec, error) {
	return decodeSpec(o.PinVerifySpec, o.PinVerifyURL)
}

func decodeSpec(raw datatypes.JSON, defaultURL string) (RequestSpec, error) {
	var spec RequestSpec
	if len(raw) > 0 && strings.TrimSpace(string(raw)) != "null" {
		if err := json.Unmarshal(raw, &spec); err != nil {
			return RequestSpec{}, err
		}
	}
	if strings.TrimSpace(spec.URL) == "" {
		spec.URL = defaultURL
	}
	spec.Method = strings.ToUpper(strings.TrimSpace(spec.Method))
	if spec.Method == "" {
		spec.Method = "POST"
	}
	return spec, nil
}
