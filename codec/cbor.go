// Package codec encodes revision sets and refs as CBOR.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// set or ref always produces the same bytes. Types implementing
// encoding.TextMarshaler (digests, phases) encode as CBOR text strings.
package codec

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/revisions"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Requirement and capability properties decode into map[string]any.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder returns a deterministic CBOR stream encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR stream decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeSet encodes a revision set.
func EncodeSet(s revisions.Set) ([]byte, error) {
	if err := s.Verify(); err != nil {
		return nil, fmt.Errorf("encode revision set: %w", err)
	}
	return Marshal(s)
}

// DecodeSet decodes a revision set and checks that its id matches its
// members. The returned set is normalized.
func DecodeSet(data []byte) (revisions.Set, error) {
	var raw revisions.Set
	if err := Unmarshal(data, &raw); err != nil {
		return revisions.Set{}, fmt.Errorf("decode revision set: %w", err)
	}
	s, err := revisions.New(raw.Members...)
	if err != nil {
		return revisions.Set{}, fmt.Errorf("decode revision set: %w", err)
	}
	if !s.ID.Equal(raw.ID) {
		return revisions.Set{}, fmt.Errorf("decode revision set: %w: have %s, members hash to %s",
			revisions.ErrMismatch, raw.ID, s.ID)
	}
	return s, nil
}

// EncodeRef encodes a revision ref.
func EncodeRef(ref library.RevisionRef) ([]byte, error) {
	return Marshal(ref)
}

// DecodeRef decodes a revision ref.
func DecodeRef(data []byte) (library.RevisionRef, error) {
	var ref library.RevisionRef
	if err := Unmarshal(data, &ref); err != nil {
		return library.RevisionRef{}, fmt.Errorf("decode revision ref: %w", err)
	}
	if !ref.Revision.IsSHA1() {
		return library.RevisionRef{}, fmt.Errorf("decode revision ref: revision %q is not a SHA-1 digest", ref.Revision)
	}
	return ref, nil
}
