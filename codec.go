package hgidx

// Codec is the user-supplied record payload serializer (spec.md §4.B): a
// black-box encoder/decoder pair the core never inspects beyond treating
// its output as an opaque, length-framed byte string. It must be
// deterministic and, in conjunction with the length the core stores
// alongside each record, self-delimiting.
//
// A Decode result is permitted to borrow from the input slice (the
// zero-copy path spec.md §9 calls for); callers that need the payload to
// outlive the Reader it came from must copy it themselves.
type Codec interface {
	// Encode serializes payload into a self-contained byte slice. The
	// core treats the result as opaque and frames it separately (see
	// wire.Writer.PutLenBytes32); Encode must not emit its own length
	// prefix.
	Encode(payload interface{}) ([]byte, error)

	// Decode parses exactly the bytes previously produced by Encode for
	// one payload. It may return a value that aliases data.
	Decode(data []byte) (interface{}, error)

	// EncodeMeta/DecodeMeta are the analogous pair for the store-level
	// user metadata blob (spec.md §4.B).
	EncodeMeta(meta interface{}) ([]byte, error)
	DecodeMeta(data []byte) (interface{}, error)
}

// RawCodec is the identity Codec over []byte: Encode and Decode both
// expect/produce a []byte payload, copying on decode so a result can
// safely outlive the mmap it was read from. It is the default for
// callers whose payload already is its own wire format (e.g. a raw BED
// line), and is what the CLI's pack/query glue uses (spec.md §6).
type RawCodec struct{}

// Encode requires payload to be a []byte and returns it unchanged.
func (RawCodec) Encode(payload interface{}) ([]byte, error) {
	b, ok := payload.([]byte)
	if !ok {
		return nil, newError(KindCodec, "RawCodec.Encode: payload is %T, want []byte", payload)
	}
	return b, nil
}

// Decode returns a copy of data as a []byte, so the caller can safely
// hold it past the lifetime of the underlying mmap if it chooses to
// (see Reader's zero-copy contract in reader.go).
func (RawCodec) Decode(data []byte) (interface{}, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// EncodeMeta requires meta to be a []byte and returns it unchanged.
func (RawCodec) EncodeMeta(meta interface{}) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	b, ok := meta.([]byte)
	if !ok {
		return nil, newError(KindCodec, "RawCodec.EncodeMeta: meta is %T, want []byte", meta)
	}
	return b, nil
}

// DecodeMeta returns a copy of data as a []byte.
func (RawCodec) DecodeMeta(data []byte) (interface{}, error) {
	if data == nil {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
