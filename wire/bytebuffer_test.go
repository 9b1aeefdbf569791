package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biostore/hgidx/wire"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := wire.NewWriter(0)
	w.PutByte(7)
	w.PutUint32(0xdeadbeef)
	w.PutUint64(0x0102030405060708)
	w.PutUvarint(300)
	w.PutLenBytes([]byte("hello"))
	w.PutLenBytes32([]byte("world!"))

	r := wire.NewReader(w.Bytes())

	b, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, uint8(7), b)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), u64)

	uv, err := r.ReadUvarint()
	require.NoError(t, err)
	require.Equal(t, uint64(300), uv)

	lb, err := r.ReadLenBytes()
	require.NoError(t, err)
	require.Equal(t, "hello", string(lb))

	lb32, err := r.ReadLenBytes32()
	require.NoError(t, err)
	require.Equal(t, "world!", string(lb32))

	require.Equal(t, 0, r.Remaining())
}

func TestReaderShortRead(t *testing.T) {
	r := wire.NewReader([]byte{1, 2})
	_, err := r.ReadUint32()
	require.Error(t, err)
}
