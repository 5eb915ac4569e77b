package pin

// Canonical transaction statuses.
const (
	StatusInit          = "INIT"
	StatusOTPSent       = "OTP_SENT"
	StatusOTPFailed     = "OTP_FAILED"
	StatusAdvNoResponse = "ADV_NO_RESPONSE"
	StatusHold          = "HOLD"
	StatusSuccess       = "SUCCESS"
	StatusOTPInvalid    = "OTP_INVALID"
	StatusFailed        = "FAILED"

	// Publisher-facing disguises for held transactions.
	StatusInvalidPIN        = "INVALID_PIN"
	StatusAlreadySubscribed = "ALREADY_SUBSCRIBED"
)

const (
	StepPinSend   = "pin_send"
	StepPinVerify = "pin_verify"
)

const (
	DirectionPublisherRequest   = "publisher_request"
	DirectionAdvertiserRequest  = "advertiser_request"
	DirectionAdvertiserResponse = "advertiser_response"
	DirectionPublisherResponse  = "publisher_response"
)
