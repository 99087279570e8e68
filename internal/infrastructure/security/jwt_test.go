package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAdminTokenRoundTrip(t *testing.T) {
	id := NewObjectID()
	token, err := GenerateAdminToken(id, "Admin", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAdminToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ID)
	assert.Equal(t, "Admin", claims.Role)
}

func TestAdminTokenRejections(t *testing.T) {
	expired, err := GenerateAdminToken(NewObjectID(), "Admin", secret, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateAdminToken(expired, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	valid, err := GenerateAdminToken(NewObjectID(), "Admin", secret, time.Hour)
	require.NoError(t, err)
	_, err = ValidateAdminToken(valid, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateAdminToken("not.a.token", secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenAudiencesDoNotMix(t *testing.T) {
	blogToken, err := GenerateBlogToken(NewObjectID(), "writer", "admin", secret, time.Hour)
	require.NoError(t, err)
	_, err = ValidateAdminToken(blogToken, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := ValidateBlogToken(blogToken, secret)
	require.NoError(t, err)
	assert.Equal(t, "writer", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	adminToken, err := GenerateAdminToken(NewObjectID(), "SuperAdmin", secret, time.Hour)
	require.NoError(t, err)
	_, err = ValidateBlogToken(adminToken, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "S3cret!"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret!"))
}

func TestIdentifiers(t *testing.T) {
	id := NewObjectID()
	assert.Len(t, id, 24)
	assert.True(t, IsObjectID(id))
	assert.False(t, IsObjectID("12345"))
	assert.False(t, IsObjectID(strings.Repeat("z", 24)))

	assert.NotEqual(t, GenerateULID(), GenerateULID())

	key, err := GenerateSecureKey(64)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	_, err = GenerateSecureKey(7)
	assert.Error(t, err)
}
