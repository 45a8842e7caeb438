package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, secret string, now func() time.Time) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:         secret,
		Issuer:         "noticeboard",
		AccessTokenTTL: time.Hour,
		ActionTokenTTL: 12 * time.Hour,
		Clock:          now,
	})
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, "super-secret", func() time.Time { return current })

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		UserID:    "user-123",
		SessionID: "session-456",
		Audience:  []string{"api"},
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "session-456", claims.SessionID)
	require.Equal(t, "noticeboard", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"api"}, claims.Audience)
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
}

func TestValidateAccessTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC) }

	token, err := newTestService(t, "issuer-secret", now).GenerateAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	_, err = newTestService(t, "other-secret", now).ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestValidateAccessTokenExpired(t *testing.T) {
	current := time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC)
	svc := newTestService(t, "secret", func() time.Time { return current })

	token, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	_, err = svc.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestActionTokenRoundTrip(t *testing.T) {
	current := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, "secret", func() time.Time { return current })

	token, err := svc.IssueActionToken("dismiss-notice", "user-a", "sess-1")
	require.NoError(t, err)

	require.NoError(t, svc.VerifyActionToken(token, "dismiss-notice", "user-a", "sess-1"))
	require.ErrorIs(t, svc.VerifyActionToken(token, "delete-notice", "user-a", "sess-1"), ErrActionMismatch)
	require.ErrorIs(t, svc.VerifyActionToken(token, "dismiss-notice", "user-b", "sess-1"), ErrSubjectMismatch)
	require.ErrorIs(t, svc.VerifyActionToken(token, "dismiss-notice", "user-a", "sess-2"), ErrSubjectMismatch)
	require.Error(t, svc.VerifyActionToken("", "dismiss-notice", "user-a", "sess-1"))
	require.Error(t, svc.VerifyActionToken("not.a.jwt", "dismiss-notice", "user-a", "sess-1"))

	current = current.Add(12*time.Hour + time.Second)
	require.ErrorIs(t, svc.VerifyActionToken(token, "dismiss-notice", "user-a", "sess-1"), jwt.ErrTokenExpired)
}

func TestAccessAndActionTokensAreNotInterchangeable(t *testing.T) {
	svc := newTestService(t, "secret", nil)

	access, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-a", SessionID: "sess-1"})
	require.NoError(t, err)
	require.ErrorIs(t, svc.VerifyActionToken(access, "dismiss-notice", "user-a", "sess-1"), jwt.ErrTokenSignatureInvalid)

	action, err := svc.IssueActionToken("dismiss-notice", "user-a", "sess-1")
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(action)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}
