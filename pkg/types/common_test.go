package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		input Hash
		want  bool
	}{
		{
			name:  "Valid Hash (40 chars)",
			input: Hash(strings.Repeat("a", 40)),
			want:  true,
		},
		{
			name:  "Too Short",
			input: Hash("abc"),
			want:  false,
		},
		{
			name:  "Empty",
			input: Hash(""),
			want:  false,
		},
		{
			name:  "Too Long",
			input: Hash(strings.Repeat("a", 41)),
			want:  false,
		},
		{
			name:  "Uppercase",
			input: Hash(strings.Repeat("A", 40)),
			want:  false,
		},
		{
			name:  "Not Hex",
			input: Hash(strings.Repeat("z", 40)),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.IsValid())
		})
	}
}

func TestHash_String(t *testing.T) {
	s := "aabbcc"
	h := Hash(s)
	assert.Equal(t, s, h.String())
	assert.False(t, h.IsZero())
	assert.Equal(t, "aabbcc", h.Short())

	var zero Hash
	assert.True(t, zero.IsZero())
}

func TestHash_RawRoundTrip(t *testing.T) {
	h := Hash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

	raw, err := h.Raw()
	require.NoError(t, err)
	assert.Equal(t, byte(0x4b), raw[0])
	assert.Equal(t, byte(0x04), raw[RawSize-1])

	back, err := HashFromRaw(raw[:])
	require.NoError(t, err)
	assert.Equal(t, h, back)
	assert.Equal(t, "4b825dc6", back.Short())
}

func TestHash_RawRejectsInvalid(t *testing.T) {
	_, err := Hash("xyz").Raw()
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = HashFromRaw([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestParseHash(t *testing.T) {
	h, err := ParseHash("  CE013625030BA8DBA906F756967F9E9CA394464A\n")
	require.NoError(t, err)
	assert.Equal(t, Hash("ce013625030ba8dba906f756967f9e9ca394464a"), h)

	_, err = ParseHash("ce0136")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestHashPrefix(t *testing.T) {
	p := HashPrefix("ce01")
	assert.Equal(t, "ce01", p.String())
	assert.True(t, p.IsValid())
	assert.False(t, p.IsFull())

	assert.False(t, HashPrefix("ce0").IsValid(), "太短")
	assert.False(t, HashPrefix("ce0g").IsValid(), "不是十六进制")
	assert.True(t, HashPrefix("ce013625030ba8dba906f756967f9e9ca394464a").IsFull())
}
