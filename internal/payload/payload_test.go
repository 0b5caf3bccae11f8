package payload

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"testing"
)

func TestDecode_ChirpStackExample(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte{0x1D, 0x7E})
	if raw != "HX4=" {
		t.Fatalf("fixture encoding = %q; want HX4=", raw)
	}

	got, err := Decode(raw, EncodingBase64)
	if err != nil {
		t.Fatalf("Decode(%q) error = %v", raw, err)
	}
	if got != 75.50 {
		t.Errorf("Decode(%q) = %v; want 75.50", raw, got)
	}

	voltage := DefaultCalibration().Voltage(got)
	if math.Abs(voltage-1.2097) > 1e-9 {
		t.Errorf("Voltage(%v) = %v; want 1.2097", got, voltage)
	}
}

func TestDecode_Encodings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		enc  Encoding
		want float64
	}{
		{name: "base64 padded", raw: "HX4=", enc: EncodingBase64, want: 75.50},
		{name: "base64 unpadded", raw: "HX4", enc: EncodingBase64, want: 75.50},
		{name: "base64 trailing bytes ignored", raw: base64.StdEncoding.EncodeToString([]byte{0x27, 0x10, 0xFF, 0x01}), enc: EncodingBase64, want: 100},
		{name: "hex upper", raw: "1D7E", enc: EncodingHex, want: 75.50},
		{name: "hex lower", raw: "1d7e", enc: EncodingHex, want: 75.50},
		{name: "auto picks hex", raw: "1D7E", enc: EncodingAuto, want: 75.50},
		{name: "auto picks base64 on padding", raw: "HX4=", enc: EncodingAuto, want: 75.50},
		{name: "auto picks base64 on non-hex chars", raw: "JxAA", enc: EncodingAuto, want: 100},
		{name: "auto reads hex-looking base64 as hex", raw: "AAAA", enc: EncodingAuto, want: 436.90},
		{name: "empty encoding means base64", raw: "HX4=", enc: "", want: 75.50},
		{name: "zero level", raw: "AAA=", enc: EncodingBase64, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw, tt.enc)
			if err != nil {
				t.Fatalf("Decode(%q, %q) error = %v", tt.raw, tt.enc, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q, %q) = %v; want %v", tt.raw, tt.enc, got, tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		enc      Encoding
		tooShort bool
	}{
		{name: "empty base64", raw: "", enc: EncodingBase64, tooShort: true},
		{name: "one byte base64", raw: "HQ==", enc: EncodingBase64, tooShort: true},
		{name: "one byte hex", raw: "1D", enc: EncodingHex, tooShort: true},
		{name: "empty auto", raw: "", enc: EncodingAuto, tooShort: true},
		{name: "invalid base64", raw: "!!!!", enc: EncodingBase64},
		{name: "invalid hex", raw: "zz", enc: EncodingHex},
		{name: "odd hex", raw: "1D7", enc: EncodingHex},
		{name: "unknown encoding", raw: "HX4=", enc: "rot13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw, tt.enc)
			if err == nil {
				t.Fatalf("Decode(%q, %q) error = nil; want error", tt.raw, tt.enc)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Decode(%q) error = %T; want *DecodeError", tt.raw, err)
			}
			if decodeErr.Raw != tt.raw {
				t.Errorf("DecodeError.Raw = %q; want %q", decodeErr.Raw, tt.raw)
			}
			if got := errors.Is(err, ErrTooShort); got != tt.tooShort {
				t.Errorf("errors.Is(err, ErrTooShort) = %v; want %v (err=%v)", got, tt.tooShort, err)
			}
		})
	}
}

func TestDecodeBytes_ShortInputs(t *testing.T) {
	for _, in := range [][]byte{nil, {}, {0x1D}} {
		if _, err := DecodeBytes(in); !errors.Is(err, ErrTooShort) {
			t.Errorf("DecodeBytes(%v) error = %v; want ErrTooShort", in, err)
		}
	}
}

func TestDecode_RoundTripAllLevels(t *testing.T) {
	buf := make([]byte, 3)
	buf[2] = 0xAA
	for v := 0; v <= math.MaxUint16; v++ {
		binary.BigEndian.PutUint16(buf, uint16(v))

		level, err := Decode(base64.StdEncoding.EncodeToString(buf), EncodingBase64)
		if err != nil {
			t.Fatalf("base64 %d: %v", v, err)
		}
		if got := int(math.Round(level * 100)); got != v {
			t.Fatalf("base64 round trip: got %d, want %d", got, v)
		}

		level, err = Decode(hex.EncodeToString(buf), EncodingHex)
		if err != nil {
			t.Fatalf("hex %d: %v", v, err)
		}
		if got := int(math.Round(level * 100)); got != v {
			t.Fatalf("hex round trip: got %d, want %d", got, v)
		}

		if enc := Encode(level); binary.BigEndian.Uint16(enc) != uint16(v) {
			t.Fatalf("Encode(%v) = %x; want %04x", level, enc, v)
		}
	}
}

func TestEncode_Clamps(t *testing.T) {
	if got := binary.BigEndian.Uint16(Encode(-5)); got != 0 {
		t.Errorf("Encode(-5) = %d; want 0", got)
	}
	if got := binary.BigEndian.Uint16(Encode(1e6)); got != math.MaxUint16 {
		t.Errorf("Encode(1e6) = %d; want %d", got, math.MaxUint16)
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{in: "", want: EncodingBase64},
		{in: "base64", want: EncodingBase64},
		{in: " HEX ", want: EncodingHex},
		{in: "Auto", want: EncodingAuto},
		{in: "binary", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseEncoding(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseEncoding(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestCalibration(t *testing.T) {
	c := DefaultCalibration()
	if err := c.Validate(); err != nil {
		t.Fatalf("default calibration invalid: %v", err)
	}
	if got := c.Voltage(0); got != 0.5 {
		t.Errorf("Voltage(0) = %v; want 0.5", got)
	}
	if got := c.Voltage(100); math.Abs(got-1.44) > 1e-12 {
		t.Errorf("Voltage(100) = %v; want 1.44", got)
	}

	for _, bad := range []Calibration{
		{VMin: 1, VMax: 1},
		{VMin: 2, VMax: 1},
		{VMin: math.NaN(), VMax: 1},
		{VMin: 0, VMax: math.Inf(1)},
	} {
		if err := bad.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil; want error", bad)
		}
	}
}
