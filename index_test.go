package hgidx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPerSequenceBuilderSortedHint(t *testing.T) {
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	b.add(100, 200, 0, 10)
	b.add(300, 400, 20, 10)
	si := b.finalize()
	require.True(t, si.SortedHint)
	require.Equal(t, uint64(2), si.NumRecords)
}

func TestPerSequenceBuilderDetectsUnsorted(t *testing.T) {
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	b.add(300, 400, 0, 10)
	b.add(100, 200, 20, 10)
	si := b.finalize()
	require.False(t, si.SortedHint)
}

func TestPerSequenceBuilderBinsSortedByID(t *testing.T) {
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	b.add(0, MaxCoord, 0, 10)                  // coarsest bin
	b.add(1<<17+10, 1<<17+20, 10, 10)          // a finest-level bin
	si := b.finalize()
	require.True(t, len(si.Bins) >= 2)
	for i := 1; i < len(si.Bins); i++ {
		require.Less(t, si.Bins[i-1].id, si.Bins[i].id)
	}
}

func TestPerSequenceBuilderMaxDepth(t *testing.T) {
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	b.add(10, 20, 0, 5)
	b.add(10, 20, 5, 5)
	b.add(10, 20, 10, 5)
	si := b.finalize()
	require.Equal(t, uint32(3), si.MaxDepth)
}

func TestPerSequenceBuilderLinearIndexFirstTouchWins(t *testing.T) {
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	b.add(10, 20, 100, 5) // touches window 0 first, offset 100
	b.add(5, 15, 200, 5)  // also touches window 0, but later: must not overwrite
	si := b.finalize()
	require.Equal(t, uint64(100), si.LinearIndex[0])
}

func TestPerSequenceBuilderLinearIndexPropagatesAcrossWindows(t *testing.T) {
	// GeometryUCSC: base_shift=17, window size 131072. R5 lands only in
	// window 3 and is written first (offset 0); R_A lands only in window
	// 0 and is written second (offset 14). Window 0's linear index must
	// still reflect R5's offset, since R5's interval ends well after
	// window 0 starts.
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	b.add(393226, 393236, 0, 10)
	b.add(10, 20, 14, 10)
	si := b.finalize()

	require.Equal(t, uint64(0), si.LinearIndex[0])
	require.Equal(t, uint64(0), si.LinearIndex[3])
}

func TestPerSequenceBuilderLinearIndexIsNondecreasing(t *testing.T) {
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	records := []struct{ start, end uint32 }{
		{393226, 393236},   // window 3
		{10, 20},           // window 0
		{270000, 270010},   // window 2
		{1000000, 1000010}, // window 7
		{50, 60},           // window 0 again
	}
	var offset uint64
	for _, r := range records {
		b.add(r.start, r.end, offset, 10)
		offset += 10
	}
	si := b.finalize()

	for i := 1; i < len(si.LinearIndex); i++ {
		require.LessOrEqualf(t, si.LinearIndex[i-1], si.LinearIndex[i],
			"linear_index must be nondecreasing: index[%d]=%d > index[%d]=%d",
			i-1, si.LinearIndex[i-1], i, si.LinearIndex[i])
	}
}

func TestSequenceIndexBinByID(t *testing.T) {
	b := newPerSequenceBuilder("chr1", GeometryUCSC)
	b.add(10, 20, 0, 5)
	si := b.finalize()
	id := binOf(10, 20, GeometryUCSC)
	got, ok := si.binByID(id)
	require.True(t, ok)
	require.Equal(t, id, got.id)

	_, ok = si.binByID(id + 1_000_000)
	require.False(t, ok)
}
