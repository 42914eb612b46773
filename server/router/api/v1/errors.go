package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studysense/studysense/server/ai"
	"github.com/studysense/studysense/server/auth"
	"github.com/studysense/studysense/server/transcript"
	"github.com/studysense/studysense/store"
)

// mapServiceError translates service failures into HTTP errors: caller
// mistakes become 400, auth failures 401, duplicate accounts 409, quota
// exhaustion 429, and anything else a 502 because the upstream backend is
// the failing party.
func mapServiceError(err error) *echo.HTTPError {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case ai.IsClientInputError(err),
		errors.Is(err, transcript.ErrInvalidURL),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrNameTooShort),
		errors.Is(err, auth.ErrPasswordTooShort):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrEmailExists):
		return echo.NewHTTPError(http.StatusConflict, "Email already exists. Please log in.")
	}

	message := err.Error()
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "quota") || strings.Contains(message, "429"):
		return echo.NewHTTPError(http.StatusTooManyRequests, message)
	case strings.Contains(lowered, "invalid image") || strings.Contains(lowered, "unable to process input image"):
		return echo.NewHTTPError(http.StatusBadRequest, message)
	case strings.Contains(lowered, "unauthorized") || strings.Contains(lowered, "forbidden") ||
		strings.Contains(message, "401") || strings.Contains(message, "403"):
		return echo.NewHTTPError(http.StatusUnauthorized, message)
	}
	return echo.NewHTTPError(http.StatusBadGateway, message)
}
