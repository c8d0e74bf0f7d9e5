package base58

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	reference "github.com/mr-tron/base58"
)

func TestEncode_Vectors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"single zero", []byte{0x00}, "1"},
		{"two zeros", []byte{0x00, 0x00}, "11"},
		{"zero then nonzero", []byte{0x00, 0x01}, "12"},
		{"fifty seven", []byte{57}, "z"},
		{"fifty eight", []byte{58}, "21"},
		{"hello", []byte("hello"), "Cn8eVZg"},
		{"max byte", []byte{0xff}, "5Q"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Encode(tc.in); got != tc.want {
				t.Fatalf("Encode(%x): got %q want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecode_InvalidCharacter(t *testing.T) {
	cases := []struct {
		in   string
		char rune
		pos  int
	}{
		{"0", '0', 0},
		{"1O1", 'O', 1},
		{"abcl", 'l', 3},
		{"1I", 'I', 1},
		{"zé", 'é', 1},
		{"5Q ", ' ', 2},
	}
	for _, tc := range cases {
		_, err := Decode(tc.in)
		var ice *InvalidCharacterError
		if !errors.As(err, &ice) {
			t.Fatalf("Decode(%q): got %v, want InvalidCharacterError", tc.in, err)
		}
		if ice.Char != tc.char || ice.Position != tc.pos {
			t.Fatalf("Decode(%q): got char %q pos %d, want char %q pos %d",
				tc.in, ice.Char, ice.Position, tc.char, tc.pos)
		}
	}
}

func TestDecode_LeadingOnes(t *testing.T) {
	got, err := Decode("111z")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := []byte{0, 0, 0, 57}; !bytes.Equal(got, want) {
		t.Fatalf("Decode(\"111z\"): got %x want %x", got, want)
	}
}

func TestRoundTrip_Property(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("Decode(Encode(b)) == b", prop.ForAll(
		func(b []byte) bool {
			got, err := Decode(Encode(b))
			return err == nil && bytes.Equal(got, b)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("Encode matches the reference codec", prop.ForAll(
		func(b []byte) bool {
			return Encode(b) == reference.Encode(b)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestRoundTrip_LeadingZeros(t *testing.T) {
	inputs := [][]byte{
		{},
		{0},
		{0, 0, 0, 0},
		{0, 1},
		{0, 0, 0xff, 0x34, 0x12},
		{0x12, 0x20, 0, 0, 0x7a},
	}
	for _, in := range inputs {
		enc := Encode(in)
		got, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%q): %v", enc, err)
		}
		if !bytes.Equal(got, in) {
			t.Fatalf("round trip of %x: got %x via %q", in, got, enc)
		}
	}
}
