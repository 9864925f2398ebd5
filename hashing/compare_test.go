package hashing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingSeq wraps a byte slice and counts every byte read.
type countingSeq struct {
	b     []byte
	reads *int
}

func (c countingSeq) Len() int { return len(c.b) }

func (c countingSeq) At(i int) byte {
	*c.reads++
	return c.b[i]
}

func countReads(a, b []byte) (bool, int) {
	var n int
	eq := constantTimeEqual(countingSeq{a, &n}, countingSeq{b, &n})
	return eq, n
}

func TestConstantTimeEqual(t *testing.T) {
	key := []byte("0123456789abcdef")
	require.True(t, constantTimeEqual(bytesView(key), bytesView(bytes.Clone(key))))
	require.True(t, constantTimeEqual(bytesView(nil), bytesView([]byte{})))

	flipped := bytes.Clone(key)
	flipped[7] ^= 0x01
	require.False(t, constantTimeEqual(bytesView(key), bytesView(flipped)))
	require.False(t, constantTimeEqual(bytesView(key), bytesView(key[:15])))
}

func TestConstantTimeEqual_VisitsEveryByte(t *testing.T) {
	stored := bytes.Repeat([]byte{0x42}, 16)

	first := bytes.Clone(stored)
	first[0] ^= 0xff
	last := bytes.Clone(stored)
	last[15] ^= 0xff

	eqFirst, readsFirst := countReads(stored, first)
	eqLast, readsLast := countReads(stored, last)
	eqSame, readsSame := countReads(stored, bytes.Clone(stored))

	require.False(t, eqFirst)
	require.False(t, eqLast)
	require.True(t, eqSame)

	require.Equal(t, readsFirst, readsLast)
	require.Equal(t, readsSame, readsFirst)
	require.Equal(t, 2*len(stored), readsFirst)
}

func TestParsePBKDF2Token_SplitsSaltAndKey(t *testing.T) {
	h, err := NewPBKDF2Hasher(PBKDF2Options{Cost: 2})
	require.NoError(t, err)
	token, err := h.Hash([]byte("split"))
	require.NoError(t, err)

	parsed, err := parsePBKDF2Token(token)
	require.NoError(t, err)
	require.Equal(t, FormatV31, parsed.version)
	require.Equal(t, 2, parsed.cost)
	require.Len(t, parsed.salt, 16)
	require.Len(t, parsed.key, 16)
}

func TestIterations(t *testing.T) {
	n, err := iterations(0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = iterations(30)
	require.NoError(t, err)
	require.Equal(t, 1<<30, n)

	_, err = iterations(-1)
	require.Error(t, err)
	_, err = iterations(31)
	require.Error(t, err)
}
