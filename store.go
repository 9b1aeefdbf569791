package hgidx

import (
	"bytes"

	"github.com/natefinch/atomic"
	"v.io/x/lib/vlog"

	"github.com/biostore/hgidx/hgidxutil"
)

// BuildOptions configures Create (spec.md §4.E, component E).
type BuildOptions struct {
	// Geometry is the bin geometry the store is built with. Zero value
	// selects GeometryUCSC.
	Geometry BinGeometry
	// Codec serializes record and metadata payloads. Required.
	Codec Codec
	// Metadata is an opaque, user-supplied blob persisted in the master
	// index and returned verbatim by Reader.Metadata (spec.md §4.B).
	Metadata interface{}
}

// Builder drives the write phase of a store: wrap a Writer, stream
// records through AddRecord, then call Finalize once to commit the
// master index atomically (spec.md §4.E). A Builder is used once.
type Builder struct {
	dir    string
	opts   BuildOptions
	geom   BinGeometry
	writer *Writer
	done   bool
}

// Create begins building a new store at dir. dir is created if absent.
// Each sequence's <seq>.bin is created, truncating any existing file of
// that name, when AddRecord first reaches that sequence; the previous
// index.bin, if any, is left untouched until the atomic rename in
// Finalize.
func Create(dir string, opts BuildOptions) (*Builder, error) {
	if opts.Codec == nil {
		return nil, newError(KindInvalidState, "BuildOptions.Codec must be set")
	}
	geom := opts.Geometry
	if geom == (BinGeometry{}) {
		geom = GeometryUCSC
	}
	w, err := NewWriter(dir, geom, opts.Codec)
	if err != nil {
		return nil, err
	}
	return &Builder{dir: dir, opts: opts, geom: geom, writer: w}, nil
}

// AddRecord forwards to the underlying Writer (spec.md §4.C). It is a
// no-op once the builder has failed or been finalized.
func (b *Builder) AddRecord(sequence string, start, end uint32, payload interface{}) {
	if b.done {
		return
	}
	b.writer.AddRecord(sequence, start, end, payload)
}

// Err returns the first fatal error encountered by AddRecord, or nil.
func (b *Builder) Err() error {
	return b.writer.Err()
}

// Finalize closes the last open sequence, serializes the master index,
// and commits it with a temp-write-then-rename so a reader never
// observes a partially-written index.bin (spec.md §4.E, "Atomicity";
// grounded on calvinalkan-agent-task's cache_binary.go commit pattern,
// generalized from os.Rename to natefinch/atomic.WriteFile so the commit
// is safe across filesystems that don't support atomic rename of an
// already-open file handle).
//
// Finalize is idempotent only in the sense that calling it twice returns
// InvalidState on the second call — a store is built exactly once.
func (b *Builder) Finalize() error {
	if b.done {
		return newError(KindInvalidState, "Finalize called more than once")
	}
	if err := b.writer.Err(); err != nil {
		return err
	}
	b.done = true

	seqs, err := b.writer.Close()
	if err != nil {
		return err
	}

	var metaBytes []byte
	hasMeta := b.opts.Metadata != nil
	if hasMeta {
		metaBytes, err = b.opts.Codec.EncodeMeta(b.opts.Metadata)
		if err != nil {
			return wrapError(KindCodec, err, "encode store metadata")
		}
	}

	mi := hgidxutil.MasterIndex{
		Version:     hgidxutil.Version,
		Geometry:    hgidxutil.Geometry{BaseShift: b.geom.BaseShift, LevelShift: b.geom.LevelShift, NumLevels: b.geom.NumLevels},
		HasMetadata: hasMeta,
		Metadata:    metaBytes,
		Sequences:   toUtilSequences(seqs),
	}
	data := hgidxutil.Encode(mi)

	path := hgidxutil.IndexPath(b.dir)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return wrapError(KindIo, err, "commit %s", path)
	}
	vlog.Infof("hgidx: finalized store at %s: %d sequences", b.dir, len(seqs))
	return nil
}

func toUtilSequences(seqs []SequenceIndex) []hgidxutil.SequenceIndex {
	out := make([]hgidxutil.SequenceIndex, len(seqs))
	for i, s := range seqs {
		bins := make([]hgidxutil.Bin, len(s.Bins))
		for j, bn := range s.Bins {
			entries := make([]hgidxutil.Entry, len(bn.entries))
			for k, e := range bn.entries {
				entries[k] = hgidxutil.Entry{Offset: e.Offset, Length: e.Length, Start: e.Start, End: e.End}
			}
			bins[j] = hgidxutil.Bin{ID: bn.id, Entries: entries}
		}
		out[i] = hgidxutil.SequenceIndex{
			Name:        s.Name,
			Bins:        bins,
			LinearIndex: s.LinearIndex,
			SortedHint:  s.SortedHint,
			NumRecords:  s.NumRecords,
			MaxDepth:    s.MaxDepth,
		}
	}
	return out
}

func fromUtilSequences(seqs []hgidxutil.SequenceIndex) []SequenceIndex {
	out := make([]SequenceIndex, len(seqs))
	for i, s := range seqs {
		bins := make([]bin, len(s.Bins))
		for j, bn := range s.Bins {
			entries := make([]RecordEntry, len(bn.Entries))
			for k, e := range bn.Entries {
				entries[k] = RecordEntry{Offset: e.Offset, Length: e.Length, Start: e.Start, End: e.End}
			}
			bins[j] = bin{id: bn.ID, entries: entries}
		}
		out[i] = SequenceIndex{
			Name:        s.Name,
			Bins:        bins,
			LinearIndex: s.LinearIndex,
			SortedHint:  s.SortedHint,
			NumRecords:  s.NumRecords,
			MaxDepth:    s.MaxDepth,
		}
	}
	return out
}
