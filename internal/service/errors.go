package service

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/imaging"
	"github.com/satnyp/spolek-rodicu/internal/mail"
	"github.com/satnyp/spolek-rodicu/internal/objectstore"
	"github.com/satnyp/spolek-rodicu/internal/pdf"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

var (
	// ErrInvalidInput marks requests rejected before any write.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks failures of external services.
	ErrUpstream = errors.New("upstream service failed")
	// ErrDisabled is returned by test-only operations in production.
	ErrDisabled = errors.New("operation disabled")
)

func codeFor(err error) connect.Code {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return connectErr.Code()
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, imaging.ErrTooLarge),
		errors.Is(err, imaging.ErrDecode),
		errors.Is(err, objectstore.ErrInvalidKey):
		return connect.CodeInvalidArgument
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return connect.CodeUnauthenticated
	case errors.Is(err, auth.ErrAccessDenied), errors.Is(err, auth.ErrInsufficientRole), errors.Is(err, ErrDisabled):
		return connect.CodePermissionDenied
	case errors.Is(err, storage.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, storage.ErrAlreadyReviewed),
		errors.Is(err, storage.ErrProtectedEntry),
		errors.Is(err, pdf.ErrNoFormFields):
		return connect.CodeFailedPrecondition
	case errors.Is(err, ErrUpstream), errors.Is(err, mail.ErrNotConfigured):
		return connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}

// connectError converts a domain error to a Connect error.
func connectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	return connect.NewError(codeFor(err), err)
}

// statusFor maps a domain error to the HTTP status of the plain endpoints.
func statusFor(err error) int {
	switch codeFor(err) {
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized
	case connect.CodePermissionDenied:
		return http.StatusForbidden
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeFailedPrecondition:
		return http.StatusConflict
	case connect.CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
