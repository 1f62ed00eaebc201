package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "vet_chat/pkg/errors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	participantID := uuid.New()

	token, err := GenerateToken(participantID, "vet", "secret", "issuer", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, participantID, claims.ParticipantID)
	assert.Equal(t, "vet", claims.Role)
	assert.Equal(t, "issuer", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "owner", "secret", "issuer", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "another-secret")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "owner", "secret", "issuer", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not-a-token", "secret")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
