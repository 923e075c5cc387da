package echoutil

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/trainval/pkg/api/types/errors"
)

type ErrorMessageOption func(in *apierr.ErrorMessage) *apierr.ErrorMessage

func WithAdvice(advice string) ErrorMessageOption {
	return func(in *apierr.ErrorMessage) *apierr.ErrorMessage {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithError(err error) ErrorMessageOption {
	return func(in *apierr.ErrorMessage) *apierr.ErrorMessage {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

func WithSee(see string) ErrorMessageOption {
	return func(in *apierr.ErrorMessage) *apierr.ErrorMessage {
		if see != "" {
			in.See = see
		}
		return in
	}
}

func NewErrorMessage(code int, reason string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := apierr.ErrorMessage{Reason: reason}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func NotFound(what string) *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, "not found: "+what)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		"bad request",
		WithAdvice(advice),
		WithError(err),
	)
}

func Conflict(message string, options ...ErrorMessageOption) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusConflict,
		message,
		options...,
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusInternalServerError,
		"unexpected error",
		WithError(err),
	)
}

// ErrorHandler writes ErrorMessage of HTTPError as JSON body.
//
// Other errors are handled by e.DefaultHTTPErrorHandler.
// All errors are logged.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		defer e.Logger.Error(err)

		he, ok := err.(*echo.HTTPError)
		if !ok {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		msg, ok := he.Message.(apierr.ErrorMessage)
		if !ok {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		if c.Response().Committed {
			return
		}
		if werr := c.JSON(he.Code, msg); werr != nil {
			e.Logger.Error(werr)
		}
	}
}
