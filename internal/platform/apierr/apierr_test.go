package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   Code
		status int
	}{
		{"not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), CodeNotFound, http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, CodeRetryable, http.StatusServiceUnavailable},
		{"unique", &pgconn.PgError{Code: "23505"}, CodeConflict, http.StatusConflict},
		{"serialization", &pgconn.PgError{Code: "40001"}, CodeRetryable, http.StatusServiceUnavailable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: pin_session.session_token"), CodeConflict, http.StatusConflict},
		{"other", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("op", tc.err)
			if CodeOf(got) != tc.code {
				t.Fatalf("code=%q want %q", CodeOf(got), tc.code)
			}
			if StatusOf(got) != tc.status {
				t.Fatalf("status=%d want %d", StatusOf(got), tc.status)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("cause lost")
			}
		})
	}
}

func TestMapErrorKeepsCodedErrors(t *testing.T) {
	in := Validation("pin_verify", "otp required")
	if got := MapError("outer", in); got != error(in) {
		t.Fatalf("coded error rewrapped: %v", got)
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestErrorString(t *testing.T) {
	e := NotFound("pin_verify", "session not found")
	if e.Error() != "pin_verify: session not found" {
		t.Fatalf("got %q", e.Error())
	}
	if StatusOf(fmt.Errorf("wrap: %w", e)) != http.StatusNotFound {
		t.Fatalf("status lost through wrap")
	}
}
