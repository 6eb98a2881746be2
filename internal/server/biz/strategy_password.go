package biz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
)

type PasswordStrategyParams struct {
	fx.In

	UserService *UserService
}

// PasswordStrategy authenticates username and password logins. A missing
// user and a wrong password both surface as invalid credentials so the
// response does not reveal which usernames exist.
type PasswordStrategy struct {
	userService *UserService
}

func NewPasswordStrategy(params PasswordStrategyParams) *PasswordStrategy {
	return &PasswordStrategy{userService: params.UserService}
}

func (s *PasswordStrategy) GrantType() GrantType {
	return GrantTypePassword
}

func (s *PasswordStrategy) Authenticate(ctx context.Context, body LoginBody) (*model.User, error) {
	user, err := s.userService.GetUserByUsername(ctx, body.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("user %q: %w", body.Username, ErrInvalidCredentials)
		}

		log.Error(ctx, "failed to look up user", log.Cause(err))

		return nil, ErrInternal
	}

	if err := VerifyPassword(user.Password, body.Password); err != nil {
		return nil, fmt.Errorf("user %q: %w", body.Username, ErrInvalidCredentials)
	}

	return user, nil
}
