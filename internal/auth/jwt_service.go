package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/charlesng35/noticeboard/pkg/crypto"
)

const (
	// DefaultAccessTokenTTL defines the fallback validity period for access tokens.
	DefaultAccessTokenTTL = 12 * time.Hour
	// DefaultActionTokenTTL defines the fallback validity period for action tokens.
	DefaultActionTokenTTL = 12 * time.Hour

	accessKeyPurpose = "noticeboard/access-token"
	actionKeyPurpose = "noticeboard/action-token"
	signingKeyLength = 32
)

var (
	// ErrActionMismatch is returned when an action token was minted for another action.
	ErrActionMismatch = errors.New("jwt: action mismatch")
	// ErrSubjectMismatch is returned when a token belongs to another user or session.
	ErrSubjectMismatch = errors.New("jwt: subject mismatch")
)

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	ActionTokenTTL time.Duration
	Clock          func() time.Time
}

// Claims represents the identity claims embedded in access tokens.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// ActionClaims bind a short-lived token to one user, session and action.
type ActionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid,omitempty"`
	Action    string `json:"act"`
	jwt.RegisteredClaims
}

// AccessTokenInput holds the parameters used when generating a new access token.
type AccessTokenInput struct {
	UserID    string
	SessionID string
	Audience  []string
}

// JWTService issues and validates access tokens and per-action tokens. Each
// kind is signed with its own key derived from the master secret.
type JWTService struct {
	accessKey []byte
	actionKey []byte
	issuer    string
	accessTTL time.Duration
	actionTTL time.Duration
	now       func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	accessKey, err := crypto.DeriveKey([]byte(cfg.Secret), accessKeyPurpose, signingKeyLength)
	if err != nil {
		return nil, fmt.Errorf("jwt: derive access key: %w", err)
	}
	actionKey, err := crypto.DeriveKey([]byte(cfg.Secret), actionKeyPurpose, signingKeyLength)
	if err != nil {
		return nil, fmt.Errorf("jwt: derive action key: %w", err)
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	actionTTL := cfg.ActionTokenTTL
	if actionTTL <= 0 {
		actionTTL = DefaultActionTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		accessKey: accessKey,
		actionKey: actionKey,
		issuer:    cfg.Issuer,
		accessTTL: accessTTL,
		actionTTL: actionTTL,
		now:       now,
	}, nil
}

// GenerateAccessToken issues a signed JWT identifying the caller.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (string, error) {
	if input.UserID == "" {
		return "", errors.New("jwt: user id is required")
	}

	claims := &Claims{
		UserID:           input.UserID,
		SessionID:        input.SessionID,
		RegisteredClaims: s.registered(input.UserID, input.SessionID, s.accessTTL),
	}
	claims.Audience = input.Audience

	return s.sign(claims, s.accessKey)
}

// ValidateAccessToken parses and validates a signed JWT, returning the application claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	var claims Claims
	if err := s.parse(tokenString, &claims, s.accessKey); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("jwt: missing user id claim")
	}
	return &claims, nil
}

// IssueActionToken mints a token authorising action for the given user and session.
func (s *JWTService) IssueActionToken(action, userID, sessionID string) (string, error) {
	if action == "" || userID == "" {
		return "", errors.New("jwt: action and user id are required")
	}

	claims := &ActionClaims{
		UserID:           userID,
		SessionID:        sessionID,
		Action:           action,
		RegisteredClaims: s.registered(userID, "", s.actionTTL),
	}
	return s.sign(claims, s.actionKey)
}

// VerifyActionToken checks that token was issued for action to userID within
// sessionID and has not expired.
func (s *JWTService) VerifyActionToken(tokenString, action, userID, sessionID string) error {
	var claims ActionClaims
	if err := s.parse(tokenString, &claims, s.actionKey); err != nil {
		return err
	}
	if claims.Action != action {
		return ErrActionMismatch
	}
	if claims.UserID == "" || claims.UserID != userID || claims.SessionID != sessionID {
		return ErrSubjectMismatch
	}
	return nil
}

func (s *JWTService) registered(subject, id string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		ID:        id,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func (s *JWTService) sign(claims jwt.Claims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims, key []byte) error {
	if tokenString == "" {
		return errors.New("jwt: token string is empty")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return fmt.Errorf("jwt: parse token: %w", err)
	}
	return nil
}
