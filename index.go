package hgidx

import "sort"

// perSequenceBuilder accumulates one sequence's bin map and linear index
// while the writer streams records in (spec.md §4.C, §4.D). It is not
// safe for concurrent use — the writer is single-threaded by design
// (spec.md §5).
type perSequenceBuilder struct {
	name    string
	geom    BinGeometry
	bins    map[uint32]*bin
	linear  []uint64 // grows lazily, one entry per window up to the highest touched one
	touched []bool   // parallel to linear: has this window been set yet?
	count   uint64
	lastPos uint32 // previous record's Start, for sortedHint detection
	sorted  bool   // sortedHint so far; starts true, clears on first regression
	seenAny bool
}

func newPerSequenceBuilder(name string, geom BinGeometry) *perSequenceBuilder {
	return &perSequenceBuilder{
		name:   name,
		geom:   geom,
		bins:   make(map[uint32]*bin),
		sorted: true,
	}
}

// growLinear extends the linear index (and its touched bitmap) so that
// window index `need-1` is addressable.
func (b *perSequenceBuilder) growLinear(need int) {
	if need <= len(b.linear) {
		return
	}
	grownLinear := make([]uint64, need)
	grownTouched := make([]bool, need)
	copy(grownLinear, b.linear)
	copy(grownTouched, b.touched)
	b.linear = grownLinear
	b.touched = grownTouched
}

// add records one interval's placement: it computes the bin id, appends
// the entry, and marks every linear-index window the interval directly
// spans. Within a window, the first record to touch it wins (offsets
// only grow as more records are appended, so the first toucher already
// holds the smallest offset among direct touches); the remaining,
// cross-window propagation that makes linear_index a true running
// minimum happens once, in finalize.
func (b *perSequenceBuilder) add(start, end uint32, offset uint64, length uint32) {
	if b.seenAny && start < b.lastPos {
		b.sorted = false
	}
	b.lastPos = start
	b.seenAny = true
	b.count++

	id := binOf(start, end, b.geom)
	bn, ok := b.bins[id]
	if !ok {
		bn = &bin{id: id}
		b.bins[id] = bn
	}
	bn.entries = append(bn.entries, RecordEntry{Offset: offset, Length: length, Start: start, End: end})

	lo := linearWindowIndex(start, b.geom)
	hi := linearWindowIndex(end-1, b.geom)
	b.growLinear(int(hi) + 1)
	for w := lo; w <= hi; w++ {
		if !b.touched[w] {
			b.linear[w] = offset
			b.touched[w] = true
		}
	}
}

// finalize sorts bins by id (entries keep insertion order, per spec.md
// §4.D's design rationale), runs the backward min-propagation pass that
// turns the directly-touched linear index into linear_index[w] = the
// minimum offset of any record whose interval ends at or after window
// w's start (spec.md §4.A, the Tabix/htslib linear index), and snapshots
// the result into an immutable SequenceIndex.
func (b *perSequenceBuilder) finalize() SequenceIndex {
	ids := make([]uint32, 0, len(b.bins))
	for id := range b.bins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	bins := make([]bin, len(ids))
	var maxDepth uint32
	for i, id := range ids {
		bins[i] = *b.bins[id]
		if n := uint32(len(bins[i].entries)); n > maxDepth {
			maxDepth = n
		}
	}

	linear := make([]uint64, len(b.linear))
	copy(linear, b.linear)
	touched := make([]bool, len(b.touched))
	copy(touched, b.touched)

	// A record only marks the windows its own span directly crosses, but
	// every window before that span also ends at or after those windows'
	// starts, so it must see the same offset as a lower bound. Propagate
	// each touched window's offset backward into every untouched or
	// larger-valued window before it, so linear ends up nondecreasing
	// (spec.md §8 invariant 4) and query's single-window lookup sees the
	// true minimum instead of just the nearest direct touch.
	for i := len(linear) - 2; i >= 0; i-- {
		if touched[i+1] && (!touched[i] || linear[i+1] < linear[i]) {
			linear[i] = linear[i+1]
			touched[i] = true
		}
	}

	return SequenceIndex{
		Name:        b.name,
		Bins:        bins,
		LinearIndex: linear,
		SortedHint:  b.sorted,
		NumRecords:  b.count,
		MaxDepth:    maxDepth,
	}
}
