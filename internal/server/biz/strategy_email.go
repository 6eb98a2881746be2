package biz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

const emailChannel = "email"

type EmailStrategyParams struct {
	fx.In

	UserService *UserService
	Codes       *VerificationCodeService
}

// EmailStrategy authenticates email plus verification code logins.
type EmailStrategy struct {
	userService *UserService
	codes       *VerificationCodeService
}

func NewEmailStrategy(params EmailStrategyParams) *EmailStrategy {
	return &EmailStrategy{
		userService: params.UserService,
		codes:       params.Codes,
	}
}

func (s *EmailStrategy) GrantType() GrantType {
	return GrantTypeEmail
}

func (s *EmailStrategy) Authenticate(ctx context.Context, body LoginBody) (*model.User, error) {
	tenantID, _ := tenant.Current(ctx)
	if err := s.codes.Verify(ctx, emailChannel, tenantID, body.Email, body.Code); err != nil {
		return nil, err
	}

	user, err := s.userService.GetUserByEmail(ctx, body.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("email %q: %w", body.Email, ErrUserNotFound)
		}

		log.Error(ctx, "failed to look up user by email", log.Cause(err))

		return nil, ErrInternal
	}

	return user, nil
}
