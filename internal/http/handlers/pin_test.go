package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/apierr"
	"github.com/Anil1013/mob13r-platform-sub000/internal/services"
)

type fakeRouter struct {
	send   services.SendRequest
	verify services.VerifyRequest
	err    error
}

func (f *fakeRouter) PinSend(ctx context.Context, req services.SendRequest) (*services.Response, error) {
	f.send = req
	if f.err != nil {
		return nil, f.err
	}
	return &services.Response{
		Status:       "OTP_SENT",
		HTTPCode:     http.StatusOK,
		Body:         map[string]any{"status": "OTP_SENT", "session_token": "tok"},
		SessionToken: "tok",
	}, nil
}

func (f *fakeRouter) PinVerify(ctx context.Context, req services.VerifyRequest) (*services.Response, error) {
	f.verify = req
	if f.err != nil {
		return nil, f.err
	}
	return &services.Response{Status: "OTP_INVALID", HTTPCode: http.StatusBadRequest, Body: map[string]any{"status": "OTP_INVALID"}}, nil
}

func (f *fakeRouter) Status(ctx context.Context, token string) (*services.StatusView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.StatusView{Status: "OTP_SENT"}, nil
}

func newEngine(h *PinHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/pin/send", h.Send)
	r.POST("/offers/:offer_id/pin/send", h.Send)
	r.POST("/pin/verify", h.Verify)
	r.GET("/pin/status/:token", h.Status)
	return r
}

func TestSendParsesPathAndBody(t *testing.T) {
	fr := &fakeRouter{}
	r := newEngine(NewPinHandler(fr))
	offerID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/offers/"+offerID.String()+"/pin/send?cid=c1",
		strings.NewReader(`{"msisdn":919800000001,"ua":"Mozilla","param1":"p1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if fr.send.OfferID == nil || *fr.send.OfferID != offerID {
		t.Fatalf("offer id=%v", fr.send.OfferID)
	}
	p := fr.send.Params
	if p["msisdn"] != "919800000001" || p["cid"] != "c1" || p["ua"] != "Mozilla" || p["param1"] != "p1" {
		t.Fatalf("params=%v", p)
	}
	if p["ip"] == "" {
		t.Fatalf("client ip not defaulted")
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["session_token"] != "tok" {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestSendPublisherRouting(t *testing.T) {
	fr := &fakeRouter{}
	r := newEngine(NewPinHandler(fr))
	pub := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/pin/send",
		strings.NewReader(`{"publisher_id":"`+pub.String()+`","geo":"IN","carrier":"VI","msisdn":"919800000001"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if fr.send.PublisherID == nil || *fr.send.PublisherID != pub || fr.send.Geo != "IN" || fr.send.Carrier != "VI" {
		t.Fatalf("send=%+v", fr.send)
	}
	if _, leaked := fr.send.Params["publisher_id"]; leaked {
		t.Fatalf("routing keys leaked into params: %v", fr.send.Params)
	}
}

func TestSendRejectsBadOfferID(t *testing.T) {
	r := newEngine(NewPinHandler(&fakeRouter{}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offers/not-a-uuid/pin/send", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"validation"`) {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestVerifyAcceptsPinAlias(t *testing.T) {
	fr := &fakeRouter{}
	r := newEngine(NewPinHandler(fr))
	req := httptest.NewRequest(http.MethodPost, "/pin/verify", strings.NewReader(`{"session_token":"abc","pin":"4321"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if fr.verify.OTP != "4321" || fr.verify.SessionToken != "abc" {
		t.Fatalf("verify=%+v", fr.verify)
	}
}

func TestErrorsCarryStatus(t *testing.T) {
	fr := &fakeRouter{err: apierr.NotFound("pin_verify", "session not found")}
	r := newEngine(NewPinHandler(fr))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pin/status/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "session not found") {
		t.Fatalf("body=%s", rec.Body.String())
	}
}
