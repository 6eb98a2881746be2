package biz

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

// GrantType selects which login strategy authenticates a request.
type GrantType string

const (
	GrantTypePassword GrantType = "password"
	GrantTypeSMS      GrantType = "sms"
	GrantTypeEmail    GrantType = "email"
	GrantTypeSocial   GrantType = "social"
)

// LoginBody is the normalized login request. Which fields matter depends
// on the grant type.
type LoginBody struct {
	TenantID  string    `json:"tenantId"`
	GrantType GrantType `json:"grantType"`
	ClientID  string    `json:"clientId"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Code  string `json:"code,omitempty"`

	Source     string `json:"source,omitempty"`
	SocialCode string `json:"socialCode,omitempty"`
}

// PrincipalKey identifies the login subject for throttling. Failed
// attempts against the same subject share one counter no matter which
// client sent them.
func (b LoginBody) PrincipalKey() string {
	switch b.GrantType {
	case GrantTypeSMS:
		return string(b.GrantType) + ":" + b.Phone
	case GrantTypeEmail:
		return string(b.GrantType) + ":" + b.Email
	case GrantTypeSocial:
		return string(b.GrantType) + ":" + b.Source + ":" + b.SocialCode
	default:
		return string(b.GrantType) + ":" + b.Username
	}
}

// Session is the issued login result.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    int64     `json:"userId"`
	TenantID  string    `json:"tenantId"`

	PermissionSet
}

// ClientConfig restricts which grant types a registered client may use.
// An empty grant list allows all of them.
type ClientConfig struct {
	ClientID   string      `conf:"client_id" yaml:"client_id" json:"client_id"`
	GrantTypes []GrantType `conf:"grant_types" yaml:"grant_types" json:"grant_types"`
}

// AuthConfig configures session signing and the client allow-lists.
type AuthConfig struct {
	SecretKey string         `conf:"secret_key" yaml:"secret_key" json:"secret_key"`
	TokenTTL  time.Duration  `conf:"token_ttl" yaml:"token_ttl" json:"token_ttl"`
	Clients   []ClientConfig `conf:"clients" yaml:"clients" json:"clients"`
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}

	return c
}

// LoginStrategy verifies one credential shape and returns the
// authenticated user. Implementations return errors wrapping
// ErrInvalidCredentials (or ErrInvalidCode) for wrong credentials so the
// throttle can tell them apart from infrastructure failures.
type LoginStrategy interface {
	GrantType() GrantType
	Authenticate(ctx context.Context, body LoginBody) (*model.User, error)
}

type AuthServiceParams struct {
	fx.In

	Config        AuthConfig
	TenantService *TenantService
	Throttle      *LoginThrottle
	Aggregator    *PermissionAggregator
	Audit         AuditSink

	Password *PasswordStrategy
	SMS      *SMSStrategy
	Email    *EmailStrategy
	Social   *SocialStrategy
}

// AuthService dispatches login requests to the strategy registered for
// the request's grant type and issues JWT sessions.
type AuthService struct {
	cfg        AuthConfig
	tenants    *TenantService
	throttle   *LoginThrottle
	aggregator *PermissionAggregator
	audit      AuditSink

	strategies map[GrantType]LoginStrategy
	clients    map[string]ClientConfig
}

func NewAuthService(params AuthServiceParams) *AuthService {
	s := &AuthService{
		cfg:        params.Config.withDefaults(),
		tenants:    params.TenantService,
		throttle:   params.Throttle,
		aggregator: params.Aggregator,
		audit:      params.Audit,
		strategies: map[GrantType]LoginStrategy{},
		clients:    map[string]ClientConfig{},
	}

	s.Register(params.Password)
	s.Register(params.SMS)
	s.Register(params.Email)
	s.Register(params.Social)

	for _, client := range params.Config.Clients {
		s.clients[client.ClientID] = client
	}

	return s
}

// Register adds a strategy to the dispatch table, replacing any previous
// strategy for the same grant type.
func (s *AuthService) Register(strategy LoginStrategy) {
	s.strategies[strategy.GrantType()] = strategy
}

// Login authenticates the request. The flow is tenant validation first,
// then the throttle gate, then the credential check, and only then the
// failure counter update, so counters never move for requests a locked
// account could not have made anyway.
func (s *AuthService) Login(ctx context.Context, body LoginBody) (*Session, error) {
	tenantID, err := s.tenants.Validate(ctx, body.TenantID)
	if err != nil {
		return nil, err
	}

	ctx = tenant.WithTenant(ctx, tenantID)

	if err := s.checkClient(body); err != nil {
		return nil, err
	}

	strategy, ok := s.strategies[body.GrantType]
	if !ok {
		return nil, fmt.Errorf("%q: %w", body.GrantType, ErrUnsupportedGrantType)
	}

	principalKey := body.PrincipalKey()

	if err := s.throttle.BeforeCheck(ctx, tenantID, principalKey); err != nil {
		return nil, err
	}

	user, err := strategy.Authenticate(ctx, body)
	if err != nil {
		if isCredentialError(err) {
			if recordErr := s.throttle.RecordResult(ctx, tenantID, principalKey, false); recordErr != nil {
				return nil, recordErr
			}
		} else {
			s.audit.Record(ctx, tenantID, principalKey, AuditOutcomeFailure, err.Error())
		}

		return nil, err
	}

	if user.Status != model.StatusEnabled {
		s.audit.Record(ctx, tenantID, principalKey, AuditOutcomeFailure, "user disabled")

		return nil, fmt.Errorf("user %d: %w", user.ID, ErrUserDisabled)
	}

	if err := s.throttle.RecordResult(ctx, tenantID, principalKey, true); err != nil {
		log.Warn(ctx, "failed to reset login counter", log.Cause(err))
	}

	session, err := s.IssueSession(ctx, user, tenantID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, tenantID, principalKey, AuditOutcomeSuccess, "login ok")
	log.Info(ctx, "user logged in",
		log.Int64("user_id", user.ID),
		log.String("tenant_id", tenantID),
		log.String("grant_type", string(body.GrantType)),
	)

	return session, nil
}

// checkClient enforces the configured client registry. With no registry
// configured the check is a no-op; once one exists, unknown client ids
// are rejected and a client with an empty grant list allows all grants.
func (s *AuthService) checkClient(body LoginBody) error {
	if body.ClientID == "" || len(s.clients) == 0 {
		return nil
	}

	client, ok := s.clients[body.ClientID]
	if !ok {
		return fmt.Errorf("client %q: %w", body.ClientID, ErrUnknownClient)
	}

	if len(client.GrantTypes) == 0 {
		return nil
	}

	if !lo.Contains(client.GrantTypes, body.GrantType) {
		return fmt.Errorf("client %q, grant %q: %w", body.ClientID, body.GrantType, ErrGrantTypeNotAllowed)
	}

	return nil
}

func isCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrUserNotFound)
}

// IssueSession aggregates the user's permissions and signs a JWT bound
// to the tenant the login resolved.
func (s *AuthService) IssueSession(ctx context.Context, user *model.User, tenantID string) (*Session, error) {
	perms, err := s.aggregator.Aggregate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate permissions: %w", err)
	}

	expiresAt := time.Now().Add(s.cfg.TokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   user.ID,
		"tenant_id": tenantID,
		"exp":       expiresAt.Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{
		Token:         tokenString,
		ExpiresAt:     expiresAt,
		UserID:        user.ID,
		TenantID:      tenantID,
		PermissionSet: perms,
	}, nil
}

// SessionClaims is what ParseToken extracts for the request middleware.
type SessionClaims struct {
	UserID   int64
	TenantID string
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method: %v", ErrInvalidToken, token.Header["alg"])
		}

		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrInvalidToken)
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}

	tenantID, _ := claims["tenant_id"].(string)

	return &SessionClaims{UserID: int64(userID), TenantID: tenantID}, nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hex.EncodeToString(hashedPassword), nil
}

// VerifyPassword verifies a password against a hash.
func VerifyPassword(hashedPassword, password string) error {
	decodedHashedPassword, err := hex.DecodeString(hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to decode hashed password: %w", err)
	}

	return bcrypt.CompareHashAndPassword(decodedHashedPassword, []byte(password))
}

// GenerateSecretKey generates a random signing key.
func GenerateSecretKey() (string, error) {
	bytes := make([]byte, 32) // 256 bits

	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}
