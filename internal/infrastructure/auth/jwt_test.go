package auth

import (
	"testing"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-that-is-long-enough-32",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "saldobirras",
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	input := GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Name:        "Carla",
		Role:        identity.RoleCashier,
		Permissions: identity.PermissionSet{identity.PermConsume: true, identity.PermRecharge: true},
	}

	token, expiresAt, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"consume", "recharge"}, claims.Permissions)

	p, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, input.TenantID, p.TenantID)
	assert.Equal(t, input.UserID, p.UserID)
	assert.Equal(t, identity.RoleCashier, p.Role)
	assert.True(t, p.Permissions.Has(identity.PermConsume))
	assert.False(t, p.Permissions.Has(identity.PermExport))
}

func TestJWTService_Rejections(t *testing.T) {
	svc := newTestJWTService()
	valid := GenerateTokenInput{TenantID: uuid.New(), UserID: uuid.New(), Role: identity.RoleOwner}

	t.Run("unknown role is not issued", func(t *testing.T) {
		_, _, err := svc.GenerateAccessToken(GenerateTokenInput{Role: "barman"})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken(valid)
		require.NoError(t, err)
		svc.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-another-secret-xx", AccessTokenExpiration: time.Minute, Issuer: "saldobirras"})
		token, _, err := other.GenerateAccessToken(valid)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-that-is-long-enough-32", AccessTokenExpiration: time.Minute, Issuer: "elsewhere"})
		token, _, err := other.GenerateAccessToken(valid)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("non access token type", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "saldobirras",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			TenantID:  uuid.NewString(),
			UserID:    uuid.NewString(),
			Role:      "owner",
			TokenType: "refresh",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_Principal(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   error
	}{
		{"bad tenant", Claims{TenantID: "x", UserID: uuid.NewString(), Role: "owner"}, ErrMissingTenantID},
		{"bad user", Claims{TenantID: uuid.NewString(), UserID: "", Role: "owner"}, ErrMissingUserID},
		{"bad role", Claims{TenantID: uuid.NewString(), UserID: uuid.NewString(), Role: "root"}, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.claims.Principal()
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown permission keys are dropped", func(t *testing.T) {
		c := Claims{TenantID: uuid.NewString(), UserID: uuid.NewString(), Role: "auditor", Permissions: []string{"stats", "launch_missiles"}}
		p, err := c.Principal()
		require.NoError(t, err)
		assert.Equal(t, []string{"stats"}, p.Permissions.Keys())
	})
}
