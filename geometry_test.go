package hgidx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalBinsUCSC(t *testing.T) {
	require.Equal(t, uint32(4681), GeometryUCSC.TotalBins())
}

func TestTotalBinsDense(t *testing.T) {
	// 1 + 4 + 16 + 64 + 256 + 1024 = 1365
	require.Equal(t, uint32(1365), GeometryDense.TotalBins())
}

func TestLevelOffsets(t *testing.T) {
	g := GeometryUCSC
	require.Equal(t, uint32(0), g.levelOffset(0))
	require.Equal(t, uint32(1), g.levelOffset(1))
	require.Equal(t, uint32(1+8), g.levelOffset(2))
	require.Equal(t, uint32(1+8+64), g.levelOffset(3))
	require.Equal(t, uint32(1+8+64+512), g.levelOffset(4))
	require.Equal(t, uint32(1+8+64+512+4096), g.levelOffset(5))
}

func TestBinOfWithinFinestWindow(t *testing.T) {
	g := GeometryUCSC
	// Both ends fall in the same base-shift (2^17) window.
	id := binOf(10, 20, g)
	require.Equal(t, g.levelOffset(4)+g.window(10, 4), id)
}

func TestBinOfSpanningFinestWindow(t *testing.T) {
	g := GeometryUCSC
	start := uint32(0)
	end := (uint32(1) << 17) + 1 // last included coord (end-1) falls in the next base window
	id := binOf(start, end, g)
	require.Less(t, id, g.levelOffset(4)) // must fall back to a coarser level
}

func TestBinOfWholeSpanIsCoarsestBin(t *testing.T) {
	g := GeometryUCSC
	id := binOf(0, MaxCoord, g)
	require.Equal(t, g.levelOffset(0), id)
}

func TestCandidateBinsIncludesBinOf(t *testing.T) {
	g := GeometryUCSC
	start, end := uint32(1000), uint32(2000)
	id := binOf(start, end, g)
	cands := candidateBins(start, end, g, nil)
	require.Contains(t, cands, id)
}

func TestCandidateBinsEmptyForEmptyRange(t *testing.T) {
	g := GeometryUCSC
	require.Empty(t, candidateBins(100, 100, g, nil))
	require.Empty(t, candidateBins(200, 100, g, nil))
}

func TestLinearWindowIndexMonotonic(t *testing.T) {
	g := GeometryUCSC
	require.LessOrEqual(t, linearWindowIndex(100, g), linearWindowIndex(200000, g))
}

func TestCustomGeometryMatchesSpecExample(t *testing.T) {
	g := NewCustomGeometry(14, 2, 6)
	require.Equal(t, GeometryDense, g)
}
