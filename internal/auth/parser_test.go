package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikyn/invoice-engine/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID uuid.UUID) Claims {
	return Claims{
		Email: "finance@northline.test",
		Role:  "finance",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestParseValidToken(t *testing.T) {
	userID := uuid.New()
	parser := NewParser(testSecret)

	principal, err := parser.Parse(signToken(t, testSecret, validClaims(userID)))
	require.NoError(t, err)

	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, "finance@northline.test", principal.Email)
	assert.Equal(t, model.RoleFinance, principal.Role)
	assert.True(t, principal.CanGenerate())
}

func TestParseRejectsWrongSecret(t *testing.T) {
	parser := NewParser(testSecret)

	_, err := parser.Parse(signToken(t, "other-secret", validClaims(uuid.New())))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	claims := validClaims(uuid.New())
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	parser := NewParser(testSecret)

	_, err := parser.Parse(signToken(t, testSecret, claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNonUUIDSubject(t *testing.T) {
	claims := validClaims(uuid.New())
	claims.Subject = "not-a-uuid"
	parser := NewParser(testSecret)

	_, err := parser.Parse(signToken(t, testSecret, claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	parser := NewParser(testSecret)

	_, err := parser.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
