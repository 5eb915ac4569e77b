package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Anil1013/mob13r-platform-sub000/internal/http/response"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/apierr"
	"github.com/Anil1013/mob13r-platform-sub000/internal/services"
)

type PinHandler struct {
	router services.PinRouter
}

func NewPinHandler(router services.PinRouter) *PinHandler {
	return &PinHandler{router: router}
}

// POST /api/v1/pin/send
// POST /api/v1/offers/:offer_id/pin/send
func (h *PinHandler) Send(c *gin.Context) {
	in, err := readParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	req := services.SendRequest{
		Geo:     take(in, "geo"),
		Carrier: take(in, "carrier"),
	}
	offerRaw := c.Param("offer_id")
	if offerRaw == "" {
		offerRaw = take(in, "offer_id")
	} else {
		delete(in, "offer_id")
	}
	if offerRaw != "" {
		id, err := uuid.Parse(offerRaw)
		if err != nil {
			response.Error(c, apierr.Validation("pin_send", "offer_id must be a uuid"))
			return
		}
		req.OfferID = &id
	}
	if pubRaw := take(in, "publisher_id"); pubRaw != "" {
		id, err := uuid.Parse(pubRaw)
		if err != nil {
			response.Error(c, apierr.Validation("pin_send", "publisher_id must be a uuid"))
			return
		}
		req.PublisherID = &id
	}
	if _, ok := in["ip"]; !ok {
		in["ip"] = c.ClientIP()
	}
	if _, ok := in["ua"]; !ok {
		in["ua"] = c.Request.UserAgent()
	}
	req.Params = in

	resp, err := h.router.PinSend(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if resp.SessionToken != "" {
		c.Set("session_token", resp.SessionToken)
	}
	response.RespondStatus(c, resp.HTTPCode, resp.Body)
}

// POST /api/v1/pin/verify
func (h *PinHandler) Verify(c *gin.Context) {
	in, err := readParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := services.VerifyRequest{
		SessionToken: in["session_token"],
		OTP:          in["otp"],
	}
	if req.OTP == "" {
		req.OTP = in["pin"]
	}
	c.Set("session_token", req.SessionToken)

	resp, err := h.router.PinVerify(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondStatus(c, resp.HTTPCode, resp.Body)
}

// GET /api/v1/pin/status/:token
func (h *PinHandler) Status(c *gin.Context) {
	view, err := h.router.Status(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, view)
}

// readParams flattens query parameters and a JSON object body into one
// string map. Body values win over query values.
func readParams(c *gin.Context) (map[string]string, error) {
	out := map[string]string{}
	for k, vals := range c.Request.URL.Query() {
		if len(vals) > 0 {
			out[k] = strings.TrimSpace(vals[0])
		}
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return out, nil
	}
	if ct := c.ContentType(); ct != "" && ct != "application/json" {
		if err := c.Request.ParseForm(); err != nil {
			return nil, apierr.Validation("decode_request", "malformed form body")
		}
		for k, vals := range c.Request.PostForm {
			if len(vals) > 0 {
				out[k] = strings.TrimSpace(vals[0])
			}
		}
		return out, nil
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		return nil, apierr.Validation("decode_request", "body must be a JSON object")
	}
	for k, v := range body {
		out[k] = scalar(v)
	}
	return out, nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func take(m map[string]string, key string) string {
	v := m[key]
	delete(m, key)
	return v
}
