// Package record implements the wire codec for persisted workspace
// records. The encoding is the protobuf wire format: field 1 is the
// workspace name, field 2 the canonical path, both length-delimited
// UTF-8 strings. Fields the current version does not know are skipped
// on decode and preserved verbatim, so newer writers can add fields
// without breaking older readers.
//
// The codec does no I/O; callers hand it complete byte slices.
package record

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed reports a byte sequence that is not a well-formed
// workspace record. It indicates external corruption or version skew.
var ErrMalformed = errors.New("malformed workspace record")

const (
	fieldName protowire.Number = 1
	fieldPath protowire.Number = 2
)

// Workspace is the decoded registry record for one workspace.
type Workspace struct {
	Name string
	Path string

	// unknown holds raw bytes of fields this version does not
	// understand, so Encode round-trips them.
	unknown []byte
}

// Encode serializes w, re-emitting any preserved unknown fields after
// the known ones.
func Encode(w *Workspace) []byte {
	b := protowire.AppendTag(nil, fieldName, protowire.BytesType)
	b = protowire.AppendString(b, w.Name)
	b = protowire.AppendTag(b, fieldPath, protowire.BytesType)
	b = protowire.AppendString(b, w.Path)
	b = append(b, w.unknown...)
	return b
}

// Decode parses data into a Workspace. A truncated or ill-formed
// message yields an error wrapping ErrMalformed; unknown trailing
// fields do not.
func Decode(data []byte) (*Workspace, error) {
	var w Workspace
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		rest := data[n:]
		switch {
		case num == fieldName && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(rest)
			if m < 0 {
				return nil, fmt.Errorf("%w: name field: %v", ErrMalformed, protowire.ParseError(m))
			}
			w.Name = v
			data = rest[m:]
		case num == fieldPath && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(rest)
			if m < 0 {
				return nil, fmt.Errorf("%w: path field: %v", ErrMalformed, protowire.ParseError(m))
			}
			w.Path = v
			data = rest[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, rest)
			if m < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			// Tag plus value, verbatim.
			w.unknown = append(w.unknown, data[:n+m]...)
			data = rest[m:]
		}
	}
	return &w, nil
}
