// Package hgidx implements a static, on-disk store for genomic interval
// records augmented by a hierarchical binning index. It answers
// "give me all records overlapping [start,end) on sequence S" in time
// proportional to the answer size plus a small per-query overhead, using
// memory-mapped, uncompressed bin files for zero-copy decode.
//
// The design follows the UCSC/Tabix binning scheme, generalized to a
// parameterizable geometry (BinGeometry), and is built in three phases:
// a Writer streams records grouped by sequence into per-sequence bin
// files while an index builder accumulates a hierarchical bin map and a
// linear index; Finalize commits a master index atomically; a Reader
// then memory-maps the result and a Query returns the overlapping records
// in bin order (or sorted order on request).
package hgidx

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Kind classifies an Error by the operation that failed: Io, Codec,
// InvalidInterval, OutOfOrderSequence, VersionMismatch, BadMagic,
// Corrupt, or InvalidState. A query against a sequence absent from the
// store is not represented here: it is not an error at all, just an
// empty result (spec.md §7).
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota
	// KindIo marks an underlying read/write/mmap failure.
	KindIo
	// KindCodec marks a record or metadata encode/decode failure.
	KindCodec
	// KindInvalidInterval marks start>=end or end>2^31 (end == 2^31 is
	// accepted, since the interval is half-open).
	KindInvalidInterval
	// KindOutOfOrderSequence marks a record for a sequence that was already
	// finalized (a non-contiguous sequence group in the input stream).
	KindOutOfOrderSequence
	// KindVersionMismatch marks a master index whose format version does
	// not match this build's expectation.
	KindVersionMismatch
	// KindBadMagic marks a master index missing the expected magic number.
	KindBadMagic
	// KindCorrupt marks a master index that fails a structural or checksum
	// validation at open time, or a bin-file record that cannot be read at
	// its indexed offset during a query.
	KindCorrupt
	// KindInvalidState marks an operation illegal for the store's current
	// lifecycle phase (e.g. a second Builder.Finalize).
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "Io"
	case KindCodec:
		return "Codec"
	case KindInvalidInterval:
		return "InvalidInterval"
	case KindOutOfOrderSequence:
		return "OutOfOrderSequence"
	case KindVersionMismatch:
		return "VersionMismatch"
	case KindBadMagic:
		return "BadMagic"
	case KindCorrupt:
		return "Corrupt"
	case KindInvalidState:
		return "InvalidState"
	default:
		return "Unknown"
	}
}

// Error is a kind-tagged, optionally wrapped error.
type Error struct {
	Kind Kind
	msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hgidx: %s: %s: %v", e.Kind, e.msg, e.Err)
	}
	return fmt.Sprintf("hgidx: %s: %s", e.Kind, e.msg)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so sentinels
// below can be matched with errors.Is without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), Err: errors.WithStack(err)}
}

// Sentinels for errors.Is comparisons against a Kind regardless of message.
var (
	ErrIo                 = &Error{Kind: KindIo}
	ErrCodec              = &Error{Kind: KindCodec}
	ErrInvalidInterval    = &Error{Kind: KindInvalidInterval}
	ErrOutOfOrderSequence = &Error{Kind: KindOutOfOrderSequence}
	ErrVersionMismatch    = &Error{Kind: KindVersionMismatch}
	ErrBadMagic           = &Error{Kind: KindBadMagic}
	ErrCorrupt            = &Error{Kind: KindCorrupt}
	ErrInvalidState       = &Error{Kind: KindInvalidState}
)

// Once accumulates the first error set on it, ignoring subsequent calls.
// It lets a Writer keep accepting AddRecord calls after a fatal error
// (the single-pass API never blocks mid-stream) while still surfacing the
// original failure from Close. Modeled on the errors.Once accumulator
// encoding/pam/pamwriter.go uses from github.com/grailbio/base/errors;
// reimplemented locally since that package is not vendored in this
// module.
type Once struct {
	mu  sync.Mutex
	err error
}

// Set records err as the first error seen, if one hasn't been recorded yet.
// Subsequent calls (including with nil) are no-ops once an error is set.
func (o *Once) Set(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		o.err = err
	}
}

// Err returns the first error recorded, or nil.
func (o *Once) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}
