package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/pkg/config"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := fastHasher()

	digest, err := h.Hash("pwd1234")
	require.NoError(t, err)
	assert.NotEqual(t, "pwd1234", digest)

	assert.True(t, h.Verify("pwd1234", digest))
	assert.False(t, h.Verify("pwd12345", digest))
	assert.False(t, h.Verify("", digest))
}

func TestPasswordHasherSaltsEachHash(t *testing.T) {
	h := fastHasher()
	a := mustHash(h, "secret")
	b := mustHash(h, "secret")
	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("secret", a))
	assert.True(t, h.Verify("secret", b))
}

func TestPasswordHasherMalformedDigestNeverMatches(t *testing.T) {
	h := fastHasher()
	assert.False(t, h.Verify("secret", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("secret", ""))
}

func TestPasswordHasherCostFallback(t *testing.T) {
	assert.Equal(t, config.MinBcryptCost, NewPasswordHasher(0).Cost())
	assert.Equal(t, config.MinBcryptCost, NewPasswordHasher(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 13, NewPasswordHasher(13).Cost())
}

func TestPasswordHasherEmbedsCost(t *testing.T) {
	h := fastHasher()
	digest := mustHash(h, "secret")
	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestPasswordHasherRejectsOverlongPassword(t *testing.T) {
	h := fastHasher()
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := h.Hash(string(long))
	require.Error(t, err)
}

func TestPasswordHasherVerifyMissing(t *testing.T) {
	h := fastHasher()
	assert.False(t, h.VerifyMissing("anything"))
	assert.False(t, h.VerifyMissing("missing-account"))
}
