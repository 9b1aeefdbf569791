package hgidxutil

import (
	"fmt"

	farm "github.com/dgryski/go-farm"
	"github.com/pkg/errors"

	"github.com/biostore/hgidx/wire"
)

// Magic is the fixed constant every valid master index begins with
// (spec.md §6).
const Magic = uint64(0x6867_6964_785F_4D49)

// Version is the format version this build writes and expects on open.
// A mismatch is a fatal VersionMismatch at open time (spec.md §7).
const Version = uint32(1)

// Geometry mirrors hgidx.BinGeometry as flat on-disk fields; kept as an
// independent type (rather than importing the root hgidx package) the
// same way encoding/pam/pamutil's types are independent of package pam,
// to keep the dependency direction one-way: hgidx imports hgidxutil, not
// the reverse.
type Geometry struct {
	BaseShift  uint8
	LevelShift uint8
	NumLevels  uint8
}

// Entry mirrors hgidx.RecordEntry.
type Entry struct {
	Offset uint64
	Length uint32
	Start  uint32
	End    uint32
}

// Bin mirrors one bin's id and entry list.
type Bin struct {
	ID      uint32
	Entries []Entry
}

// SequenceIndex mirrors hgidx.SequenceIndex.
type SequenceIndex struct {
	Name        string
	Bins        []Bin
	LinearIndex []uint64
	SortedHint  bool
	NumRecords  uint64
	MaxDepth    uint32
}

// MasterIndex is the full on-disk schema spec.md §6 describes: magic (implicit;
// checked separately), version, geometry, optional user metadata, and the
// ordered per-sequence table.
type MasterIndex struct {
	Version     uint32
	Geometry    Geometry
	HasMetadata bool
	Metadata    []byte
	Sequences   []SequenceIndex
}

// Encode serializes mi into the store's index.bin byte layout: magic,
// version, geometry, optional metadata, sequence count, per-sequence
// records, and a trailing farm.Hash64 checksum of everything before it
// (SPEC_FULL.md §B — the corruption-detection use of go-farm).
func Encode(mi MasterIndex) []byte {
	w := wire.NewWriter(4096)
	w.PutUint64(Magic)
	w.PutUint32(mi.Version)
	w.PutByte(mi.Geometry.BaseShift)
	w.PutByte(mi.Geometry.LevelShift)
	w.PutByte(mi.Geometry.NumLevels)

	if mi.HasMetadata {
		w.PutByte(1)
		w.PutLenBytes(mi.Metadata)
	} else {
		w.PutByte(0)
	}

	w.PutUvarint(uint64(len(mi.Sequences)))
	for _, seq := range mi.Sequences {
		w.PutLenBytes([]byte(seq.Name))
		w.PutUvarint(seq.NumRecords)
		w.PutUint32(seq.MaxDepth)
		if seq.SortedHint {
			w.PutByte(1)
		} else {
			w.PutByte(0)
		}

		w.PutUvarint(uint64(len(seq.Bins)))
		for _, b := range seq.Bins {
			w.PutUint32(b.ID)
			w.PutUvarint(uint64(len(b.Entries)))
			for _, e := range b.Entries {
				w.PutUint64(e.Offset)
				w.PutUint32(e.Length)
				w.PutUint32(e.Start)
				w.PutUint32(e.End)
			}
		}

		w.PutUvarint(uint64(len(seq.LinearIndex)))
		for _, v := range seq.LinearIndex {
			w.PutUint64(v)
		}
	}

	checksum := farm.Hash64(w.Bytes())
	w.PutUint64(checksum)
	return w.Bytes()
}

// Decode parses and validates a master index previously produced by
// Encode, checking magic, version, and checksum before trusting any
// field (spec.md §7: BadMagic/VersionMismatch/Corrupt are all fatal at
// open).
func Decode(data []byte) (MasterIndex, error) {
	var mi MasterIndex
	if len(data) < 8+8 {
		return mi, errors.New("corrupt: index too small to contain magic and checksum")
	}
	body := data[:len(data)-8]
	wantChecksum := farm.Hash64(body)
	r := wire.NewReader(data)

	magic, err := r.ReadUint64()
	if err != nil {
		return mi, errors.Wrap(err, "read magic")
	}
	if magic != Magic {
		return mi, fmt.Errorf("bad magic: got %#x, want %#x", magic, Magic)
	}

	version, err := r.ReadUint32()
	if err != nil {
		return mi, errors.Wrap(err, "read version")
	}
	if version != Version {
		return mi, fmt.Errorf("version mismatch: got %d, want %d", version, Version)
	}
	mi.Version = version

	base, err := r.ReadByte()
	if err != nil {
		return mi, errors.Wrap(err, "read geometry.baseShift")
	}
	level, err := r.ReadByte()
	if err != nil {
		return mi, errors.Wrap(err, "read geometry.levelShift")
	}
	levels, err := r.ReadByte()
	if err != nil {
		return mi, errors.Wrap(err, "read geometry.numLevels")
	}
	mi.Geometry = Geometry{BaseShift: base, LevelShift: level, NumLevels: levels}

	hasMeta, err := r.ReadByte()
	if err != nil {
		return mi, errors.Wrap(err, "read metadata flag")
	}
	if hasMeta != 0 {
		meta, err := r.ReadLenBytes()
		if err != nil {
			return mi, errors.Wrap(err, "read metadata")
		}
		mi.HasMetadata = true
		mi.Metadata = append([]byte(nil), meta...)
	}

	nSeq, err := r.ReadUvarint()
	if err != nil {
		return mi, errors.Wrap(err, "read sequence count")
	}
	mi.Sequences = make([]SequenceIndex, 0, nSeq)
	for i := uint64(0); i < nSeq; i++ {
		nameBytes, err := r.ReadLenBytes()
		if err != nil {
			return mi, errors.Wrapf(err, "read sequence %d name", i)
		}
		numRecords, err := r.ReadUvarint()
		if err != nil {
			return mi, errors.Wrapf(err, "read sequence %d numRecords", i)
		}
		maxDepth, err := r.ReadUint32()
		if err != nil {
			return mi, errors.Wrapf(err, "read sequence %d maxDepth", i)
		}
		sortedByte, err := r.ReadByte()
		if err != nil {
			return mi, errors.Wrapf(err, "read sequence %d sortedHint", i)
		}

		nBins, err := r.ReadUvarint()
		if err != nil {
			return mi, errors.Wrapf(err, "read sequence %d bin count", i)
		}
		bins := make([]Bin, 0, nBins)
		for j := uint64(0); j < nBins; j++ {
			id, err := r.ReadUint32()
			if err != nil {
				return mi, errors.Wrapf(err, "read sequence %d bin %d id", i, j)
			}
			nEntries, err := r.ReadUvarint()
			if err != nil {
				return mi, errors.Wrapf(err, "read sequence %d bin %d entry count", i, j)
			}
			entries := make([]Entry, nEntries)
			for k := range entries {
				off, err := r.ReadUint64()
				if err != nil {
					return mi, errors.Wrapf(err, "read sequence %d bin %d entry %d offset", i, j, k)
				}
				length, err := r.ReadUint32()
				if err != nil {
					return mi, errors.Wrapf(err, "read sequence %d bin %d entry %d length", i, j, k)
				}
				start, err := r.ReadUint32()
				if err != nil {
					return mi, errors.Wrapf(err, "read sequence %d bin %d entry %d start", i, j, k)
				}
				end, err := r.ReadUint32()
				if err != nil {
					return mi, errors.Wrapf(err, "read sequence %d bin %d entry %d end", i, j, k)
				}
				entries[k] = Entry{Offset: off, Length: length, Start: start, End: end}
			}
			bins = append(bins, Bin{ID: id, Entries: entries})
		}

		nLinear, err := r.ReadUvarint()
		if err != nil {
			return mi, errors.Wrapf(err, "read sequence %d linear index length", i)
		}
		linear := make([]uint64, nLinear)
		for j := range linear {
			v, err := r.ReadUint64()
			if err != nil {
				return mi, errors.Wrapf(err, "read sequence %d linear index entry %d", i, j)
			}
			linear[j] = v
		}

		mi.Sequences = append(mi.Sequences, SequenceIndex{
			Name:        string(nameBytes),
			Bins:        bins,
			LinearIndex: linear,
			SortedHint:  sortedByte != 0,
			NumRecords:  numRecords,
			MaxDepth:    maxDepth,
		})
	}

	gotChecksum, err := r.ReadUint64()
	if err != nil {
		return mi, errors.Wrap(err, "read checksum")
	}
	if r.Remaining() != 0 {
		return mi, fmt.Errorf("corrupt: %d trailing bytes after checksum", r.Remaining())
	}
	if gotChecksum != wantChecksum {
		return mi, fmt.Errorf("corrupt: checksum mismatch: got %#x, want %#x", gotChecksum, wantChecksum)
	}

	return mi, nil
}
