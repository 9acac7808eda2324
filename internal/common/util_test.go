package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{"salt", 16, 32},
		{"single byte", 1, 2},
		{"empty", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := MakeRandHexString(tt.size)
			require.NoError(t, err)
			assert.Len(t, s, tt.want)

			raw, err := hex.DecodeString(s)
			require.NoError(t, err)
			assert.Len(t, raw, tt.size)
		})
	}
}

func TestMakeRandHexString_SaltsDiffer(t *testing.T) {
	seen := map[string]bool{}
	for range 8 {
		s, err := MakeRandHexString(16)
		require.NoError(t, err)
		assert.False(t, seen[s], "salt repeated: %s", s)
		seen[s] = true
	}
}

func TestGenerateRandByteArray(t *testing.T) {
	nonce := GenerateRandByteArray(12)
	key := GenerateRandByteArray(32)

	assert.Len(t, nonce, 12)
	assert.Len(t, key, 32)
	assert.NotEqual(t, key, GenerateRandByteArray(32))
}

func TestWipeByteArray(t *testing.T) {
	pw := []byte("s3cret")
	WipeByteArray(pw)
	assert.Equal(t, make([]byte, 6), pw)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}
