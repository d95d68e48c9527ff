package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParams keeps argon2 cheap in unit tests.
var testParams = Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 16}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(testParams)
	require.NoError(t, err)
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "pw123456")

	ok, err := h.Verify("pw123456", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("pw1234567", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_IsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerify_UsesStoredParams(t *testing.T) {
	older := newTestHasher(t)
	hash, err := older.Hash("pw123456")
	require.NoError(t, err)

	newer, err := NewHasher(Params{Time: 2, Memory: 2048, Threads: 1, KeyLen: 32, SaltLen: 16})
	require.NoError(t, err)

	ok, err := newer.Verify("pw123456", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_InvalidHash(t *testing.T) {
	h := newTestHasher(t)

	cases := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=1024,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=1024,t=4294967295,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$",
	}

	for _, encoded := range cases {
		require.NotPanics(t, func() { _, _ = h.Verify("pw", encoded) }, "hash %q", encoded)
		ok, err := h.Verify("pw", encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, "hash %q", encoded)
		assert.False(t, ok)
	}
}

func TestVerifyDummy(t *testing.T) {
	h := newTestHasher(t)
	assert.False(t, h.VerifyDummy("orgdesk-timing-equaliser"))
}

func TestNewHasher_Validation(t *testing.T) {
	_, err := NewHasher(Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 8, SaltLen: 16})
	assert.Error(t, err)

	_, err = NewHasher(Params{Time: 0, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 16})
	assert.Error(t, err)

	_, err = NewHasher(Params{Time: 1, Memory: maxMemory + 1, Threads: 1, KeyLen: 16, SaltLen: 16})
	assert.Error(t, err)
}
