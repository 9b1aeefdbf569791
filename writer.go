package hgidx

import (
	"bufio"
	"os"

	"v.io/x/lib/vlog"

	"github.com/biostore/hgidx/hgidxutil"
	"github.com/biostore/hgidx/wire"
)

// Writer streams (sequence, start, end, payload) tuples into a store
// directory, one dense bin file per sequence, and accumulates the
// hierarchical + linear index for each (spec.md §4.C, component C).
//
// Records for a given sequence must be contiguous in the call sequence:
// once AddRecord has moved on to a new sequence name, returning to a
// previously-seen one is a fatal OutOfOrderSequence error. Records
// within a sequence SHOULD arrive in ascending start order but need not
// — the writer tracks whether they did (SequenceIndex.SortedHint) rather
// than requiring it.
//
// A Writer is single-threaded and owns its output directory exclusively
// for the duration of the build (spec.md §5); concurrent writers to the
// same directory have undefined behavior.
type Writer struct {
	dir   string
	geom  BinGeometry
	codec Codec

	done    map[string]bool // sequences already finalized
	current *perSequenceBuilder
	curFile *os.File
	curBuf  *bufio.Writer
	curOff  uint64

	order   []string
	indices []SequenceIndex

	err Once
}

// NewWriter creates a Writer that will build a store at dir using codec
// to serialize payloads and geom as the bin geometry. dir is created if
// it does not already exist.
func NewWriter(dir string, geom BinGeometry, codec Codec) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapError(KindIo, err, "create store dir %s", dir)
	}
	return &Writer{
		dir:   dir,
		geom:  geom,
		codec: codec,
		done:  make(map[string]bool),
	}, nil
}

// Err returns the first fatal error encountered so far, or nil.
func (w *Writer) Err() error { return w.err.Err() }

// AddRecord appends one record. It is a no-op once Err() is non-nil, so
// callers can keep streaming without checking the error after every
// call and inspect it once at Close (mirrors encoding/pam/pamwriter.go's
// Writer.Write).
func (w *Writer) AddRecord(sequence string, start, end uint32, payload interface{}) {
	if w.err.Err() != nil {
		return
	}
	if end <= start || end > MaxCoord {
		w.err.Set(newError(KindInvalidInterval, "sequence %s: invalid interval [%d,%d)", sequence, start, end))
		return
	}
	if w.current == nil || w.current.name != sequence {
		if w.done[sequence] {
			w.err.Set(newError(KindOutOfOrderSequence, "sequence %s seen again after being finalized", sequence))
			return
		}
		if err := w.rollSequence(sequence); err != nil {
			w.err.Set(err)
			return
		}
	}

	encoded, err := w.codec.Encode(payload)
	if err != nil {
		w.err.Set(wrapError(KindCodec, err, "encode record on %s [%d,%d)", sequence, start, end))
		return
	}
	if len(encoded) > 1<<32-1 {
		w.err.Set(newError(KindCodec, "encoded record too large: %d bytes", len(encoded)))
		return
	}

	rec := wire.NewWriter(len(encoded) + 4)
	rec.PutLenBytes32(encoded)
	offset := w.curOff
	n, ioErr := w.curBuf.Write(rec.Bytes())
	w.curOff += uint64(n)
	if ioErr != nil {
		w.err.Set(wrapError(KindIo, ioErr, "write record to %s.bin", sequence))
		return
	}

	w.current.add(start, end, offset, uint32(len(encoded)))
}

// rollSequence finalizes the currently-open sequence (if any) and opens
// a fresh bin file for the next one.
func (w *Writer) rollSequence(sequence string) error {
	if err := w.closeCurrent(); err != nil {
		return err
	}
	path := hgidxutil.BinFilePath(w.dir, sequence)
	f, err := os.Create(path)
	if err != nil {
		return wrapError(KindIo, err, "create %s", path)
	}
	w.curFile = f
	w.curBuf = bufio.NewWriterSize(f, 1<<20)
	w.curOff = 0
	w.current = newPerSequenceBuilder(sequence, w.geom)
	w.order = append(w.order, sequence)
	return nil
}

// closeCurrent flushes and finalizes the in-progress sequence, if any
// (spec.md §4.C, "finalize_sequence, implicit, triggered by ... first
// record on a different sequence").
func (w *Writer) closeCurrent() error {
	if w.current == nil {
		return nil
	}
	if err := w.curBuf.Flush(); err != nil {
		return wrapError(KindIo, err, "flush %s.bin", w.current.name)
	}
	if err := w.curFile.Close(); err != nil {
		return wrapError(KindIo, err, "close %s.bin", w.current.name)
	}
	name := w.current.name
	w.done[name] = true
	w.indices = append(w.indices, w.current.finalize())
	vlog.Infof("hgidx: finalized sequence %s: %d records, %d bins", name, w.indices[len(w.indices)-1].NumRecords, len(w.indices[len(w.indices)-1].Bins))
	w.current = nil
	w.curFile = nil
	w.curBuf = nil
	w.curOff = 0
	return nil
}

// Close finalizes the last open sequence and returns the ordered list of
// per-sequence indices built so far, or the first error encountered
// during the build. It does not write the master index — that is
// Builder.Finalize's job (spec.md §4.E); Writer only owns the
// per-sequence bin files.
func (w *Writer) Close() ([]SequenceIndex, error) {
	if w.err.Err() != nil {
		return nil, w.err.Err()
	}
	if err := w.closeCurrent(); err != nil {
		w.err.Set(err)
		return nil, err
	}
	return w.indices, nil
}
