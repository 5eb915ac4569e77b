package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Code standardizes failure semantics across the routing engine.
type Code string

const (
	CodeValidation            Code = "validation"
	CodeNotFound              Code = "not_found"
	CodeNoOfferAvailable      Code = "no_offer_available"
	CodeAdvertiserUnreachable Code = "advertiser_unreachable"
	CodeAdvertiserRejected    Code = "advertiser_rejected"
	CodeConflict              Code = "conflict"
	CodeRetryable             Code = "retryable"
	CodeInternal              Code = "internal"
)

type Error struct {
	Status int
	Code   Code
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	op := strings.TrimSpace(e.Op)
	switch {
	case e.Err != nil && op != "":
		return fmt.Sprintf("%s: %s", op, e.Err.Error())
	case e.Err != nil:
		return e.Err.Error()
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case e.Code != "":
		return string(e.Code)
	case e.Status != 0:
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code Code, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(op, msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Op: op, Err: errors.New(msg)}
}

func NotFound(op, msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Op: op, Err: errors.New(msg)}
}

func NoOfferAvailable(op string, err error) *Error {
	if err == nil {
		err = errors.New("no offer available")
	}
	return &Error{Status: http.StatusNotFound, Code: CodeNoOfferAvailable, Op: op, Err: err}
}

func Internal(op string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Op: op, Err: err}
}

// CodeOf extracts the code when err (or a wrapped err) is an *Error.
func CodeOf(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

func IsCode(err error, code Code) bool { return CodeOf(err) == code }

// StatusOf returns the HTTP-equivalent status carried by err, 500 otherwise.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MapError classifies infrastructure failures into coded errors.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Op: op, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Status: http.StatusServiceUnavailable, Code: CodeRetryable, Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return &Error{Status: http.StatusConflict, Code: CodeConflict, Op: op, Err: err} // unique_violation
		case "40001", "40P01", "55P03":
			return &Error{Status: http.StatusServiceUnavailable, Code: CodeRetryable, Op: op, Err: err}
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return &Error{Status: http.StatusConflict, Code: CodeConflict, Op: op, Err: err}
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "deadlock"):
		return &Error{Status: http.StatusServiceUnavailable, Code: CodeRetryable, Op: op, Err: err}
	}
	return Internal(op, err)
}
