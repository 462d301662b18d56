package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad input", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewInvalidTransition("no", nil), "INVALID_TRANSITION", http.StatusConflict},
		{NewInvalidState("frozen", nil), "INVALID_STATE", http.StatusConflict},
		{NewDuplicateSignature("art-1"), "DUPLICATE_SIGNATURE", http.StatusConflict},
		{NewNotFound("artifact", nil), "NOT_FOUND", http.StatusNotFound},
		{NewUnauthorized("who"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{NewConflict("race", nil), "CONFLICT", http.StatusConflict},
		{NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var domainErr *DomainError
		require.True(t, errors.As(tc.err, &domainErr))
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
	}
}

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewConflict("race", map[string]any{"artifact_id": "art-1"})
	converted := ToDomainError(fmt.Errorf("wrapped: %w", original))
	assert.Equal(t, "CONFLICT", converted.Code)
	assert.Equal(t, "art-1", converted.Details["artifact_id"])
}

func TestToDomainErrorNoRows(t *testing.T) {
	converted := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", converted.Code)
	assert.Equal(t, http.StatusNotFound, converted.HTTPStatus)
}

func TestToDomainErrorUnknown(t *testing.T) {
	converted := ToDomainError(errors.New("disk on fire"))
	assert.Equal(t, "INTERNAL_ERROR", converted.Code)
	// Internals never leak the underlying message.
	assert.Equal(t, "internal server error", converted.Message)
	assert.ErrorContains(t, converted, "disk on fire")
}

func TestMapErrorNilStaysNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.Error(t, MapError(errors.New("boom")))
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewInternalError(inner)
	assert.True(t, errors.Is(err, inner))
}
