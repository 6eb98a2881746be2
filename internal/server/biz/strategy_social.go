package biz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
)

// SocialClient exchanges an authorization code with an external identity
// provider and returns the provider-scoped open id.
type SocialClient interface {
	ExchangeCode(ctx context.Context, source, code string) (openID string, err error)
}

type disabledSocialClient struct{}

// NewDisabledSocialClient is used when no identity provider is
// configured. Every exchange fails closed.
func NewDisabledSocialClient() SocialClient {
	return disabledSocialClient{}
}

func (disabledSocialClient) ExchangeCode(ctx context.Context, source, code string) (string, error) {
	return "", fmt.Errorf("social login not configured for source %q", source)
}

type SocialStrategyParams struct {
	fx.In

	UserService *UserService
	Client      SocialClient
}

// SocialStrategy authenticates third-party logins. The external exchange
// happens first; only a user already bound to the returned open id may
// log in.
type SocialStrategy struct {
	userService *UserService
	client      SocialClient
}

func NewSocialStrategy(params SocialStrategyParams) *SocialStrategy {
	return &SocialStrategy{
		userService: params.UserService,
		client:      params.Client,
	}
}

func (s *SocialStrategy) GrantType() GrantType {
	return GrantTypeSocial
}

func (s *SocialStrategy) Authenticate(ctx context.Context, body LoginBody) (*model.User, error) {
	openID, err := s.client.ExchangeCode(ctx, body.Source, body.SocialCode)
	if err != nil {
		return nil, fmt.Errorf("social exchange failed for %q: %w", body.Source, ErrInvalidCredentials)
	}

	user, err := s.userService.GetUserByOpenID(ctx, openID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("source %q: %w", body.Source, ErrUserNotFound)
		}

		log.Error(ctx, "failed to look up user by open id", log.Cause(err))

		return nil, ErrInternal
	}

	return user, nil
}
