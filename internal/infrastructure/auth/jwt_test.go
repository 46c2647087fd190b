package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepup/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-only!!",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "keepup-backend",
	})
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		CompanyID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		UserID:    uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Username:  "operator",
		Role:      RoleManager,
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, expiresAt, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, input.CompanyID.String(), claims.CompanyID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, "operator", claims.Username)
	assert.Equal(t, RoleManager, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_ValidateAccessToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService()
	token, _, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-secret-value!!",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "keepup-backend",
	})

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateAccessToken_Garbage(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-only!!",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "keepup-backend",
	})

	token, _, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_ValidateAccessToken_MissingCompanyID(t *testing.T) {
	secret := []byte("test-secret-key-for-unit-tests-only!!")
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: uuid.New().String(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	svc := newTestJWTService()
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrMissingCompanyID)
}

func TestClaims_HasAnyRole(t *testing.T) {
	claims := &Claims{Role: RoleCompanyAdmin}

	assert.True(t, claims.HasAnyRole(RoleUser, RoleManager, RoleCompanyAdmin, RoleSuperAdmin))
	assert.False(t, claims.HasAnyRole(RoleSuperAdmin))
	assert.False(t, claims.HasAnyRole())
}

func TestClaims_GetUUIDs(t *testing.T) {
	input := newTestInput()
	svc := newTestJWTService()
	token, _, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	companyID, err := claims.GetCompanyUUID()
	require.NoError(t, err)
	assert.Equal(t, input.CompanyID, companyID)

	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
		},
	}
	assert.InDelta(t, float64(10*time.Minute), float64(claims.GetRemainingTTL()), float64(5*time.Second))

	expired := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	assert.Equal(t, time.Duration(0), expired.GetRemainingTTL())

	assert.Equal(t, time.Duration(0), (&Claims{}).GetRemainingTTL())
}
