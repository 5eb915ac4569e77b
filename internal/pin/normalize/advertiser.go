package normalize

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/pin"
)

// Result is an advertiser response translated into the canonical vocabulary.
type Result struct {
	Status     string
	HTTPCode   int
	Success    bool
	Message    string
	SessionKey *string
	PortalURL  string
	// Raw is the untouched advertiser payload, kept for audit.
	Raw any
}

var (
	messageKeys    = []string{"message", "msg", "Message", "description", "error_message", "error"}
	sessionKeyKeys = []string{"sessionKey", "session_key", "sessionId", "session_id", "transaction_id", "txnId"}
	portalKeys     = []string{"portal_url", "portalUrl", "redirect_url", "redirectUrl", "url"}
)

const noResponseMessage = "advertiser did not respond"

// MapPinSend maps a PIN-Send response to OTP_SENT or OTP_FAILED. A nil
// payload means the advertiser never answered.
func MapPinSend(raw any) Result {
	if raw == nil {
		return noResponse()
	}
	obj := asObject(raw)
	res := Result{
		Success:    isSuccess(obj),
		Message:    firstString(obj, messageKeys),
		SessionKey: firstStringPtr(obj, sessionKeyKeys),
		Raw:        raw,
	}
	if res.Success {
		res.Status, res.HTTPCode = pin.StatusOTPSent, http.StatusOK
	} else {
		res.Status, res.HTTPCode = pin.StatusOTPFailed, http.StatusBadRequest
	}
	return res
}

// MapPinVerify maps a PIN-Verify response to SUCCESS or OTP_INVALID.
func MapPinVerify(raw any) Result {
	if raw == nil {
		return noResponse()
	}
	obj := asObject(raw)
	res := Result{
		Success:    isSuccess(obj),
		Message:    firstString(obj, messageKeys),
		SessionKey: firstStringPtr(obj, sessionKeyKeys),
		PortalURL:  firstString(obj, portalKeys),
		Raw:        raw,
	}
	if res.Success {
		res.Status, res.HTTPCode = pin.StatusSuccess, http.StatusOK
	} else {
		res.Status, res.HTTPCode = pin.StatusOTPInvalid, http.StatusBadRequest
	}
	return res
}

func noResponse() Result {
	return Result{
		Status:   pin.StatusAdvNoResponse,
		HTTPCode: http.StatusBadGateway,
		Message:  noResponseMessage,
	}
}

func asObject(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	}
	return map[string]any{}
}

// isSuccess accepts any of the conventional success markers.
func isSuccess(obj map[string]any) bool {
	switch v := obj["status"].(type) {
	case bool:
		if v {
			return true
		}
	case string:
		if v == "true" {
			return true
		}
	}
	if v, ok := obj["success"].(bool); ok && v {
		return true
	}
	if isNumber(obj["code"], 200) {
		return true
	}
	if v, ok := obj["response"].(string); ok && v == "Success" {
		return true
	}
	return false
}

func isNumber(v any, want float64) bool {
	switch n := v.(type) {
	case float64:
		return n == want
	case float32:
		return float64(n) == want
	case int:
		return float64(n) == want
	case int64:
		return float64(n) == want
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == want
	}
	return false
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := scalarString(obj[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstStringPtr(obj map[string]any, keys []string) *string {
	s := firstString(obj, keys)
	if s == "" {
		return nil
	}
	return &s
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return fmt.Sprintf("%.0f", t), t == float64(int64(t))
	case int, int64, json.Number:
		return fmt.Sprint(t), true
	}
	return "", false
}
