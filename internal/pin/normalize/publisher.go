package normalize

import (
	"net/http"

	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
)

// Share of held transactions disguised as INVALID_PIN; the rest read
// ALREADY_SUBSCRIBED.
const InvalidPINShare = 0.30

// Payload is what the publisher receives.
type Payload struct {
	Status   string
	HTTPCode int
	Body     map[string]any
}

// Publisher derives the publisher payload. A held transaction ignores the
// advertiser outcome and is reported as a plausible subscriber failure.
func Publisher(res *Result, held bool, draw func() float64) Payload {
	if res == nil || res.Status == "" {
		return Failed("")
	}
	if held {
		status, msg := pin.StatusAlreadySubscribed, "User already subscribed"
		if draw() < InvalidPINShare {
			status, msg = pin.StatusInvalidPIN, "Invalid PIN"
		}
		return Payload{
			Status:   status,
			HTTPCode: http.StatusBadRequest,
			Body:     map[string]any{"status": status, "message": msg},
		}
	}

	body := map[string]any{
		"status":  res.Status,
		"message": res.Message,
	}
	if res.SessionKey != nil {
		body["session_key"] = *res.SessionKey
	}
	if res.PortalURL != "" {
		body["portal_url"] = res.PortalURL
	}
	if res.Raw != nil {
		body["adv_response"] = res.Raw
	}
	code := res.HTTPCode
	if code == 0 {
		code = http.StatusOK
	}
	return Payload{Status: res.Status, HTTPCode: code, Body: body}
}

// Failed is the payload for any internal error.
func Failed(message string) Payload {
	if message == "" {
		message = "internal error"
	}
	return Payload{
		Status:   pin.StatusFailed,
		HTTPCode: http.StatusInternalServerError,
		Body:     map[string]any{"status": pin.StatusFailed, "message": message},
	}
}
