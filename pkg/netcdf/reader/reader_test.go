package reader

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type memSource struct {
	*bytes.Reader
}

func (m memSource) Close() error { return nil }

func newSource(data []byte) Source {
	return memSource{bytes.NewReader(data)}
}

func TestFingerprintMatchesLiteralBytes(t *testing.T) {
	data := []byte("CDF\x01some header bytes that would be consumed by a parser")
	fp := New(newSource(data))

	got, err := fp.ReadFull(len(data))
	require.NoError(t, err)
	require.Equal(t, data, got)

	want := md5.Sum(data)
	require.Equal(t, hex.EncodeToString(want[:]), fp.Digest())
	require.Equal(t, int64(len(data)), fp.BytesRead())
}

func TestSeekDoesNotAffectDigest(t *testing.T) {
	data := []byte("0123456789")
	fp := New(newSource(data))

	_, err := fp.ReadFull(4)
	require.NoError(t, err)

	_, err = fp.Seek(0, io.SeekStart)
	require.NoError(t, err)

	// Re-reading the same bytes folds them into the digest a second time —
	// the digest tracks bytes returned from Read, not file offsets.
	_, err = fp.ReadFull(4)
	require.NoError(t, err)

	want := md5.Sum([]byte("01230123"))
	require.Equal(t, hex.EncodeToString(want[:]), fp.Digest())
}

func TestReadFullShortErrors(t *testing.T) {
	fp := New(newSource([]byte("ab")))
	_, err := fp.ReadFull(5)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
