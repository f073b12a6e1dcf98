package record

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  Workspace
	}{
		{"simple", Workspace{Name: "main", Path: "/work/main"}},
		{"spaces", Workspace{Name: "my workspace", Path: "/home/user/my project"}},
		{"unicode", Workspace{Name: "wörk", Path: "/tmp/wörk"}},
		{"empty path", Workspace{Name: "x", Path: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(&tt.rec))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if got.Name != tt.rec.Name {
				t.Errorf("name = %q, want %q", got.Name, tt.rec.Name)
			}
			if got.Path != tt.rec.Path {
				t.Errorf("path = %q, want %q", got.Path, tt.rec.Path)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	rec, err := Decode(nil)
	if err != nil {
		t.Fatalf("decode of empty input failed: %v", err)
	}
	if rec.Name != "" || rec.Path != "" {
		t.Errorf("expected zero record, got %+v", rec)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"bare tag", []byte{0x0a}},
		{"truncated length", []byte{0x0a, 0x10, 'h', 'i'}},
		{"bad varint tag", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestUnknownFieldsIgnoredOnDecode(t *testing.T) {
	data := Encode(&Workspace{Name: "main", Path: "/work/main"})

	// A future writer appends field 3.
	data = protowire.AppendTag(data, 3, protowire.BytesType)
	data = protowire.AppendString(data, "extra")
	// And a varint field 4.
	data = protowire.AppendTag(data, 4, protowire.VarintType)
	data = protowire.AppendVarint(data, 42)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode with unknown fields failed: %v", err)
	}
	if got.Name != "main" || got.Path != "/work/main" {
		t.Errorf("known fields corrupted: %+v", got)
	}
}

func TestUnknownFieldsPreservedOnReencode(t *testing.T) {
	data := Encode(&Workspace{Name: "main", Path: "/work/main"})
	data = protowire.AppendTag(data, 3, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)

	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// A read-modify-write must not drop the unknown field.
	rec.Path = "/work/elsewhere"
	again, err := Decode(Encode(rec))
	if err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if again.Path != "/work/elsewhere" {
		t.Errorf("path = %q, want /work/elsewhere", again.Path)
	}
	if len(again.unknown) != len(rec.unknown) || len(again.unknown) == 0 {
		t.Errorf("unknown fields not preserved: %d bytes, want %d", len(again.unknown), len(rec.unknown))
	}
}
