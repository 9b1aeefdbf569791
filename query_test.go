package hgidx

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"
)

type interval struct {
	start, end uint32
	payload    string
}

func buildStore(t *testing.T, geom BinGeometry, records []interval) (*Reader, func()) {
	t.Helper()
	dir, cleanup := testutil.TempDir(t, "", "")

	b, err := Create(dir, BuildOptions{Geometry: geom, Codec: RawCodec{}})
	require.NoError(t, err)
	for _, r := range records {
		b.AddRecord("chr1", r.start, r.end, []byte(r.payload))
	}
	require.NoError(t, b.Err())
	require.NoError(t, b.Finalize())

	reader, err := Open(dir, RawCodec{})
	require.NoError(t, err)
	return reader, func() {
		reader.Close()
		testutil.NoCleanupOnError(t, cleanup)
	}
}

func bruteForceOverlap(records []interval, qs, qe uint32) map[string]bool {
	want := make(map[string]bool)
	for _, r := range records {
		if r.start < qe && qs < r.end {
			want[r.payload] = true
		}
	}
	return want
}

func hitPayloads(hits []Hit) map[string]bool {
	got := make(map[string]bool)
	for _, h := range hits {
		got[string(h.Payload.([]byte))] = true
	}
	return got
}

func TestQueryBasicOverlap(t *testing.T) {
	records := []interval{
		{100, 200, "a"},
		{150, 250, "b"},
		{300, 400, "c"},
	}
	r, cleanup := buildStore(t, GeometryUCSC, records)
	defer cleanup()

	hits, err := r.Query("chr1", 180, 220, QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, bruteForceOverlap(records, 180, 220), hitPayloads(hits))
}

func TestQueryUnknownSequenceIsEmptyNotError(t *testing.T) {
	r, cleanup := buildStore(t, GeometryUCSC, []interval{{0, 10, "a"}})
	defer cleanup()

	hits, err := r.Query("chrZZ", 0, 100, QueryOptions{})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestQueryInvalidIntervalIsError(t *testing.T) {
	r, cleanup := buildStore(t, GeometryUCSC, []interval{{0, 10, "a"}})
	defer cleanup()

	_, err := r.Query("chr1", 10, 5, QueryOptions{})
	require.Error(t, err)
}

func TestQueryOrderedSortsByStart(t *testing.T) {
	records := []interval{
		{300, 400, "c"},
		{100, 200, "a"},
		{150, 250, "b"},
	}
	r, cleanup := buildStore(t, GeometryUCSC, records)
	defer cleanup()

	hits, err := r.Query("chr1", 0, MaxCoord-1, QueryOptions{Ordered: true})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		require.LessOrEqual(t, hits[i-1].Start, hits[i].Start)
	}
}

// TestQueryRandomizedAgainstOracle is the fuzz scenario S2: build a
// store from randomly generated intervals on one sequence and check
// every query against a brute-force oracle (spec.md §8, invariant 1).
func TestQueryRandomizedAgainstOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const maxCoord = uint32(1) << 22
	const numRecords = 2000

	records := make([]interval, numRecords)
	for i := range records {
		start := rng.Uint32() % maxCoord
		length := uint32(rng.Intn(50000) + 1)
		end := start + length
		if end > maxCoord {
			end = maxCoord
		}
		if end <= start {
			end = start + 1
		}
		records[i] = interval{start, end, fmt.Sprintf("rec%d", i)}
	}

	r, cleanup := buildStore(t, GeometryUCSC, records)
	defer cleanup()

	for q := 0; q < 200; q++ {
		qs := rng.Uint32() % maxCoord
		length := uint32(rng.Intn(20000) + 1)
		qe := qs + length
		if qe > maxCoord {
			qe = maxCoord
		}
		if qe <= qs {
			continue
		}
		hits, err := r.Query("chr1", qs, qe, QueryOptions{})
		require.NoError(t, err)
		require.Equal(t, bruteForceOverlap(records, qs, qe), hitPayloads(hits))
	}
}

func TestQueryCustomGeometryMatchesUCSCResults(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const maxCoord = uint32(1) << 20
	const numRecords = 500

	records := make([]interval, numRecords)
	for i := range records {
		start := rng.Uint32() % maxCoord
		length := uint32(rng.Intn(5000) + 1)
		end := start + length
		if end > maxCoord {
			end = maxCoord
		}
		if end <= start {
			end = start + 1
		}
		records[i] = interval{start, end, fmt.Sprintf("rec%d", i)}
	}

	ucsc, cleanupU := buildStore(t, GeometryUCSC, records)
	defer cleanupU()
	dense, cleanupD := buildStore(t, NewCustomGeometry(14, 2, 6), records)
	defer cleanupD()

	for q := 0; q < 100; q++ {
		qs := rng.Uint32() % maxCoord
		qe := qs + uint32(rng.Intn(3000)+1)
		if qe > maxCoord {
			qe = maxCoord
		}
		if qe <= qs {
			continue
		}
		hitsU, err := ucsc.Query("chr1", qs, qe, QueryOptions{})
		require.NoError(t, err)
		hitsD, err := dense.Query("chr1", qs, qe, QueryOptions{})
		require.NoError(t, err)
		require.Equal(t, hitPayloads(hitsU), hitPayloads(hitsD))
	}
}
