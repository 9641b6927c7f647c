package auth

import (
	"context"
	"errors"
	"time"

	"note-keeper/cmd/server/handlers/httperr"
	"note-keeper/internal/logger"
	"note-keeper/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CookieName is the cookie carrying the access token.
const CookieName = "jwt"

// AuthService defines the interface for auth service
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.AuthResponse, error)
	SignIn(ctx context.Context, req auth.SignInRequest) (*auth.AuthResponse, error)
	TokenTTL() time.Duration
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService  AuthService
	validator    *validator.Validate
	cookieSecure bool
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate, cookieSecure bool) *Handlers {
	return &Handlers{
		authService:  authService,
		validator:    validator,
		cookieSecure: cookieSecure,
	}
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Sets the jwt cookie on success.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpRequest true "Sign up request"
// @Success 201 {object} auth.SignUpResponse
// @Failure 400 {object} httperr.E
// @Router /auth/sign-up [post]
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req auth.SignUpRequest
	if err := h.parse(c, &req, "SignUp"); err != nil {
		return err
	}

	resp, err := h.authService.SignUp(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, auth.ErrRegistrationFailed) {
			logger.L().Info("signup rejected", "handler", "SignUp", "email", req.Email, "error", err)
			return httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: auth.ErrRegistrationFailed.Error()})
		}
		logger.L().Error("signup service failed", "handler", "SignUp", "email", req.Email, "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	h.setTokenCookie(c, resp.Token, h.authService.TokenTTL())
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SignIn handles user authentication
// @Summary Authenticate a user
// @Description Sets the jwt cookie on success.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignInRequest true "Sign in request"
// @Success 200 {object} auth.SignInResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/sign-in [post]
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req auth.SignInRequest
	if err := h.parse(c, &req, "SignIn"); err != nil {
		return err
	}

	resp, err := h.authService.SignIn(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.L().Info("signin rejected", "handler", "SignIn", "email", req.Email)
			return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: auth.ErrInvalidCredentials.Error()})
		}
		logger.L().Error("signin service failed", "handler", "SignIn", "email", req.Email, "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	h.setTokenCookie(c, resp.Token, h.authService.TokenTTL())
	return c.JSON(resp)
}

// SignOut clears the token cookie
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/sign-out [post]
func (h *Handlers) SignOut(c *fiber.Ctx) error {
	h.setTokenCookie(c, "", 0)
	return c.JSON(fiber.Map{"message": "Signed out"})
}

func (h *Handlers) parse(c *fiber.Ctx, req any, handlerName string) error {
	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := h.validator.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "error", err)
		return httperr.InvalidInput(err)
	}
	return nil
}

// setTokenCookie writes the jwt cookie. A zero ttl expires it.
func (h *Handlers) setTokenCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	cookie := &fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = time.Now().Add(ttl)
	} else {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	c.Cookie(cookie)
}
