package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

type AuthHandlersParams struct {
	fx.In

	AuthService *biz.AuthService
}

func NewAuthHandlers(params AuthHandlersParams) *AuthHandlers {
	return &AuthHandlers{
		AuthService: params.AuthService,
	}
}

type AuthHandlers struct {
	AuthService *biz.AuthService
}

// SignIn handles all grant types: the body names the grant type and the
// strategy-specific credential fields.
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var (
		ctx  = c.Request.Context()
		body biz.LoginBody
	)

	if err := c.ShouldBindJSON(&body); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if body.GrantType == "" {
		body.GrantType = biz.GrantTypePassword
	}

	session, err := h.AuthService.Login(ctx, body)
	if err != nil {
		status := loginErrorStatus(err)
		JSONError(c, status, err)

		return
	}

	c.JSON(http.StatusOK, session)
}

func loginErrorStatus(err error) int {
	var limited *biz.RateLimitedError
	if errors.As(err, &limited) {
		return http.StatusTooManyRequests
	}

	switch {
	case errors.Is(err, biz.ErrUnsupportedGrantType),
		errors.Is(err, biz.ErrGrantTypeNotAllowed),
		errors.Is(err, biz.ErrUnknownClient):
		return http.StatusBadRequest
	case errors.Is(err, biz.ErrTenantNotFound),
		errors.Is(err, biz.ErrTenantDisabled),
		errors.Is(err, biz.ErrTenantExpired):
		return http.StatusForbidden
	case errors.Is(err, biz.ErrInvalidCredentials),
		errors.Is(err, biz.ErrInvalidCode),
		errors.Is(err, biz.ErrUserNotFound),
		errors.Is(err, biz.ErrUserDisabled):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
