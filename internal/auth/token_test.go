package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/approval-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 60)

	role := domain.ReviewerRoleDirector
	token, expiresAt, err := tm.GenerateToken("rev-1", domain.SubjectTypeReviewer, &role)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeReviewer, claims.Subject)
	require.NotNil(t, claims.Role)
	assert.Equal(t, role, *claims.Role)
}

func TestTokenEmployeeHasNoRole(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 60)

	token, _, err := tm.GenerateToken("emp-1", domain.SubjectTypeEmployee, nil)
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeEmployee, claims.Subject)
	assert.Nil(t, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 60)
	verifier := NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken("emp-1", domain.SubjectTypeEmployee, nil)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	tm := &TokenManager{secret: []byte("unit-test-secret"), ttl: -time.Minute}

	token, _, err := tm.GenerateToken("emp-1", domain.SubjectTypeEmployee, nil)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 60)

	_, err := tm.ParseToken("not.a.jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("hunter2!", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hashed)

	assert.NoError(t, ComparePassword(hashed, "hunter2!"))
	assert.Error(t, ComparePassword(hashed, "wrong"))
}
