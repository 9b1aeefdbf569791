package hgidx

import (
	"os"
	"strings"
	"sync"

	"github.com/edsrzf/mmap-go"
	"v.io/x/lib/vlog"

	"github.com/biostore/hgidx/hgidxutil"
	"github.com/biostore/hgidx/wire"
)

// mappedSequence holds one sequence's memory-mapped bin file plus its
// parsed index, opened lazily on first access (spec.md §4.F, "Design
// rationale: a store with 1000 sequences but a query touching one
// shouldn't pay for 999 mmaps").
type mappedSequence struct {
	index SequenceIndex
	once  sync.Once
	mm    mmap.MMap
	file  *os.File
	err   error
}

// Reader opens a finalized store for querying: it memory-maps bin files
// on demand and decodes records through the Codec supplied at Open
// (spec.md §4.F, component F). A Reader is safe for concurrent use by
// multiple goroutines once Open returns, mirroring mmap-backed readers
// elsewhere in the corpus (kortschak-ins's use of edsrzf/mmap-go).
type Reader struct {
	dir      string
	geom     BinGeometry
	codec    Codec
	metadata interface{}

	mu    sync.Mutex
	seqs  map[string]*mappedSequence
	order []string
}

// Open memory-maps nothing yet beyond the master index: it reads and
// validates index.bin, then defers per-sequence mmaps to first use.
func Open(dir string, codec Codec) (*Reader, error) {
	if codec == nil {
		return nil, newError(KindInvalidState, "Open: codec must be set")
	}
	path := hgidxutil.IndexPath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(KindIo, err, "read %s", path)
	}

	mi, err := hgidxutil.Decode(data)
	if err != nil {
		return nil, classifyIndexError(err)
	}

	r := &Reader{
		dir:   dir,
		geom:  BinGeometry{BaseShift: mi.Geometry.BaseShift, LevelShift: mi.Geometry.LevelShift, NumLevels: mi.Geometry.NumLevels},
		codec: codec,
		seqs:  make(map[string]*mappedSequence),
	}

	if mi.HasMetadata {
		meta, err := codec.DecodeMeta(mi.Metadata)
		if err != nil {
			return nil, wrapError(KindCodec, err, "decode store metadata")
		}
		r.metadata = meta
	}

	for _, s := range fromUtilSequences(mi.Sequences) {
		r.seqs[s.Name] = &mappedSequence{index: s}
		r.order = append(r.order, s.Name)
	}
	vlog.Infof("hgidx: opened store at %s: %d sequences", dir, len(r.order))
	return r, nil
}

// classifyIndexError maps a plain error from hgidxutil.Decode to the
// Kind its message indicates, since hgidxutil (to avoid importing this
// package) cannot construct an *Error itself.
func classifyIndexError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "bad magic"):
		return wrapError(KindBadMagic, err, "open master index")
	case strings.Contains(msg, "version mismatch"):
		return wrapError(KindVersionMismatch, err, "open master index")
	default:
		return wrapError(KindCorrupt, err, "open master index")
	}
}

// Geometry returns the bin geometry the store was built with.
func (r *Reader) Geometry() BinGeometry { return r.geom }

// Metadata returns the decoded store-level metadata, or nil if none was
// set at build time.
func (r *Reader) Metadata() interface{} { return r.metadata }

// Sequences returns the names of every sequence present in the store, in
// the order they were written.
func (r *Reader) Sequences() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// sequence returns the mapped sequence for name, opening its mmap on
// first access. A nil, nil result means name is not present in the store
// (spec.md §7, UnknownSequence: not fatal, an empty result).
func (r *Reader) sequence(name string) (*mappedSequence, error) {
	r.mu.Lock()
	ms, ok := r.seqs[name]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	ms.once.Do(func() { ms.err = ms.open(r.dir) })
	if ms.err != nil {
		return nil, ms.err
	}
	return ms, nil
}

func (ms *mappedSequence) open(dir string) error {
	path := hgidxutil.BinFilePath(dir, ms.index.Name)
	if ms.index.NumRecords == 0 {
		// No bin file was ever created for a sequence with zero records.
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return wrapError(KindIo, err, "open %s", path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return wrapError(KindIo, err, "mmap %s", path)
	}
	ms.file = f
	ms.mm = m
	return nil
}

// decodeAt decodes the record stored at byte offset off within this
// sequence's bin file, returning the payload via the Reader's Codec. The
// returned value may alias the mmap (RawCodec does not; user codecs that
// choose to are the caller's responsibility to not retain past Close,
// per the Codec contract in codec.go).
func (ms *mappedSequence) decodeAt(off uint64, codec Codec) (interface{}, error) {
	rd := wire.NewReader(ms.mm[off:])
	payload, err := rd.ReadLenBytes32()
	if err != nil {
		return nil, wrapError(KindCorrupt, err, "read record at offset %d in %s.bin", off, ms.index.Name)
	}
	decoded, err := codec.Decode(payload)
	if err != nil {
		return nil, wrapError(KindCodec, err, "decode record at offset %d in %s.bin", off, ms.index.Name)
	}
	return decoded, nil
}

// Close unmaps every sequence that was opened and releases its file
// handle. It is safe to call Close more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, ms := range r.seqs {
		if ms.mm == nil {
			continue
		}
		if err := ms.mm.Unmap(); err != nil && first == nil {
			first = wrapError(KindIo, err, "unmap %s.bin", ms.index.Name)
		}
		if err := ms.file.Close(); err != nil && first == nil {
			first = wrapError(KindIo, err, "close %s.bin", ms.index.Name)
		}
		ms.mm = nil
		ms.file = nil
	}
	return first
}
