package hgidx

import "sort"

// Hit is one overlapping record returned by a Query.
type Hit struct {
	Sequence string
	Start    uint32
	End      uint32
	Payload  interface{}
}

// QueryOptions controls how a Query streams its results (spec.md §4.G).
type QueryOptions struct {
	// Ordered requests results sorted by Start (ties broken by End), at
	// the cost of a sort over all hits. The default, false, returns
	// results in bin-scan order, which is NOT start-sorted in general.
	// Either way Query collects every hit into a slice before returning.
	Ordered bool
}

// Query finds every record on sequence overlapping the half-open
// interval [start,end), per the two-pointer candidate-bin intersection
// and linear-index-bounded scan described in spec.md §4.G. An unknown
// sequence yields zero hits and a nil error (UnknownSequence is an
// expected, empty-result condition, not fatal).
func (r *Reader) Query(sequence string, start, end uint32, opts QueryOptions) ([]Hit, error) {
	if end <= start || end > MaxCoord {
		return nil, newError(KindInvalidInterval, "query on %s: invalid interval [%d,%d)", sequence, start, end)
	}

	ms, err := r.sequence(sequence)
	if err != nil {
		return nil, err
	}
	if ms == nil || ms.index.NumRecords == 0 {
		return nil, nil
	}

	candidates := candidateBins(start, end, r.geom, nil)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	var startOffset uint64
	if lw := linearWindowIndex(start, r.geom); int(lw) < len(ms.index.LinearIndex) {
		startOffset = ms.index.LinearIndex[lw]
	}

	var hits []Hit
	// Two-pointer walk: candidates is sorted ascending; index.Bins is
	// sorted ascending by id (perSequenceBuilder.finalize's invariant). Advance
	// whichever side is behind until one is exhausted.
	ci, bi := 0, 0
	for ci < len(candidates) && bi < len(ms.index.Bins) {
		cid := candidates[ci]
		bid := ms.index.Bins[bi].id
		switch {
		case cid < bid:
			ci++
		case cid > bid:
			bi++
		default:
			b := &ms.index.Bins[bi]
			for _, e := range b.entries {
				if e.Offset < startOffset {
					continue
				}
				if e.Start >= end && ms.index.SortedHint {
					// Sorted input guarantees no later entry in this bin
					// (entries keep ascending Start order when SortedHint
					// holds) can still overlap; stop scanning this bin.
					break
				}
				if !(e.Start < end && start < e.End) {
					continue
				}
				payload, err := ms.decodeAt(e.Offset, r.codec)
				if err != nil {
					return nil, err
				}
				hits = append(hits, Hit{Sequence: sequence, Start: e.Start, End: e.End, Payload: payload})
			}
			ci++
			bi++
		}
	}

	if opts.Ordered {
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Start != hits[j].Start {
				return hits[i].Start < hits[j].Start
			}
			return hits[i].End < hits[j].End
		})
	}
	return hits, nil
}
