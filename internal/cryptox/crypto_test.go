package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTP_DigitsOnly(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewOTP(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "non-digit %q in %q", r, code)
		}
	}
}

func TestNewOTP_InvalidLength(t *testing.T) {
	_, err := NewOTP(0)
	require.Error(t, err)
}

func TestNewOTP_RandError(t *testing.T) {
	old := randReader
	randReader = errReader{}
	t.Cleanup(func() { randReader = old })

	_, err := NewOTP(6)
	require.Error(t, err)
}

func TestNewOTP_Deterministic(t *testing.T) {
	old := randReader
	randReader = bytes.NewReader(bytes.Repeat([]byte{0}, 64))
	t.Cleanup(func() { randReader = old })

	code, err := NewOTP(6)
	require.NoError(t, err)
	assert.Equal(t, "000000", code)
}

func TestHashAndCompareCode(t *testing.T) {
	h, err := HashCode("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", h)

	assert.True(t, CompareCode(h, "123456"))
	assert.False(t, CompareCode(h, "123457"))
	assert.False(t, CompareCode("not-a-hash", "123456"))
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("token-a"))
	assert.NotEqual(t, a, HashToken("token-b"))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }
