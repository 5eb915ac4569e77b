package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/apierr"
)

// Error writes err with the status and code it carries. Uncoded errors are
// reported as internal without leaking their text.
func Error(c *gin.Context, err error) {
	var e *apierr.Error
	if !errors.As(err, &e) || e.Code == "" {
		RespondError(c, apierr.StatusOf(err), string(apierr.CodeInternal), errors.New("internal error"))
		return
	}
	msg := e.Err
	if msg == nil {
		msg = errors.New(string(e.Code))
	}
	RespondError(c, apierr.StatusOf(err), string(e.Code), msg)
}
