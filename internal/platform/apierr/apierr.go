package apierr

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/vizlake/vizlake-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From maps the service error taxonomy onto HTTP statuses. Integrity
// violations surface as a generic 500 so storage details never leak.
func From(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pkgerrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, pkgerrors.ErrIntegrity):
		return New(http.StatusInternalServerError, "internal_error", errors.New("internal error"))
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
