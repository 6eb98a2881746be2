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

const smsChannel = "sms"

type SMSStrategyParams struct {
	fx.In

	UserService *UserService
	Codes       *VerificationCodeService
}

// SMSStrategy authenticates phone plus verification code logins.
type SMSStrategy struct {
	userService *UserService
	codes       *VerificationCodeService
}

func NewSMSStrategy(params SMSStrategyParams) *SMSStrategy {
	return &SMSStrategy{
		userService: params.UserService,
		codes:       params.Codes,
	}
}

func (s *SMSStrategy) GrantType() GrantType {
	return GrantTypeSMS
}

func (s *SMSStrategy) Authenticate(ctx context.Context, body LoginBody) (*model.User, error) {
	tenantID, _ := tenant.Current(ctx)
	if err := s.codes.Verify(ctx, smsChannel, tenantID, body.Phone, body.Code); err != nil {
		return nil, err
	}

	user, err := s.userService.GetUserByPhone(ctx, body.Phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("phone %q: %w", body.Phone, ErrUserNotFound)
		}

		log.Error(ctx, "failed to look up user by phone", log.Cause(err))

		return nil, ErrInternal
	}

	return user, nil
}
