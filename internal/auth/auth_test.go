package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const secret = "test-secret"

func TestIssueAndParseRoundTrip(t *testing.T) {
	id := models.Identity{UserID: primitive.NewObjectID(), Email: "a@example.com", IsAdmin: true}
	token, expires, err := Issue(id, secret, time.Hour, time.Now())
	require.NoError(t, err)

	got, gotExp, err := Parse(token, secret)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, expires.Unix(), gotExp.Unix())
}

func TestParseRejects(t *testing.T) {
	id := models.Identity{UserID: primitive.NewObjectID()}

	expired, _, err := Issue(id, secret, -time.Minute, time.Now())
	require.NoError(t, err)
	_, _, err = Parse(expired, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	valid, _, err := Issue(id, secret, time.Hour, time.Now())
	require.NoError(t, err)
	_, _, err = Parse(valid, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	raw, err := noUser.SignedString([]byte(secret))
	require.NoError(t, err)
	_, _, err = Parse(raw, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = BearerToken("bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	for _, bad := range []string{"", "abc", "Basic abc", "Bearer a b"} {
		_, err := BearerToken(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, bad)
	}
}

func TestVerifierCachesUntilExpiry(t *testing.T) {
	v, err := NewVerifier(secret, 8)
	require.NoError(t, err)

	now := time.Now()
	v.now = func() time.Time { return now }

	id := models.Identity{UserID: primitive.NewObjectID(), Email: "c@example.com"}
	token, _, err := Issue(id, secret, time.Hour, now)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, 1, v.Cached())

	got, err = v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	now = now.Add(2 * time.Hour)
	_, err = v.Verify(token)
	assert.Error(t, err)
	assert.Equal(t, 0, v.Cached())
}
