package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studysense/studysense/server/auth"
)

func (s *APIV1Service) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}

	user, err := s.Auth.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.Role, req.Department)
	if err != nil {
		return mapServiceError(err)
	}

	return s.respondWithToken(c, user)
}

func (s *APIV1Service) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}

	user, err := s.Auth.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}

	return s.respondWithToken(c, user)
}

func (s *APIV1Service) respondWithToken(c echo.Context, user auth.User) error {
	token, expiresIn, err := s.Auth.CreateAccessToken(user)
	if err != nil {
		s.logger.Error("access token creation failed", "email", user.Email, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create access token.")
	}
	return c.JSON(http.StatusOK, authResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
		User:        user,
	})
}

// bearerToken pulls the token out of the Authorization header.
func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header.")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format.")
	}
	return strings.TrimSpace(parts[1]), nil
}

func (s *APIV1Service) handleMe(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	user, err := s.Auth.VerifyAccessToken(c.Request().Context(), token)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, user)
}
