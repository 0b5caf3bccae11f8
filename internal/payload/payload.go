// Package payload decodes the water tank sensor's uplink payload.
//
// The sensor sends the tank level multiplied by 100 as a big-endian uint16
// (0x1D7E = 7550 = 75.50%). ChirpStack delivers the frame payload base64
// encoded; some legacy forwarders send it hex encoded instead.
package payload

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

const levelPayloadLen = 2

// Encoding selects how the textual payload is turned into bytes.
type Encoding string

const (
	EncodingBase64 Encoding = "base64"
	EncodingHex    Encoding = "hex"
	// EncodingAuto picks hex when the text is made of hex digits only and
	// carries no '=' padding, base64 otherwise.
	EncodingAuto Encoding = "auto"
)

// ErrTooShort is wrapped by DecodeError when fewer than two bytes decode.
var ErrTooShort = errors.New("payload too short")

// DecodeError reports a payload that could not be turned into a level.
type DecodeError struct {
	Encoding Encoding
	Raw      string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s payload %q: %v", e.Encoding, e.Raw, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseEncoding validates an encoding name. Empty means base64.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case "", EncodingBase64:
		return EncodingBase64, nil
	case EncodingHex:
		return EncodingHex, nil
	case EncodingAuto:
		return EncodingAuto, nil
	default:
		return EncodingBase64, fmt.Errorf("invalid payload encoding %q (allowed: base64, hex, auto)", s)
	}
}

// Decode converts the textual payload into a tank level in percent.
// Bytes past the first two are ignored.
func Decode(raw string, enc Encoding) (float64, error) {
	if enc == EncodingAuto {
		enc = detect(raw)
	}

	var (
		data []byte
		err  error
	)
	switch enc {
	case EncodingHex:
		data, err = hex.DecodeString(raw)
	case EncodingBase64, "":
		enc = EncodingBase64
		data, err = decodeBase64(raw)
	default:
		err = fmt.Errorf("unsupported encoding %q", enc)
	}
	if err != nil {
		return 0, &DecodeError{Encoding: enc, Raw: raw, Err: err}
	}

	level, err := DecodeBytes(data)
	if err != nil {
		return 0, &DecodeError{Encoding: enc, Raw: raw, Err: err}
	}
	return level, nil
}

// DecodeBytes interprets already decoded payload bytes.
func DecodeBytes(data []byte) (float64, error) {
	if len(data) < levelPayloadLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}
	scaled := binary.BigEndian.Uint16(data[:levelPayloadLen])
	return float64(scaled) / 100.0, nil
}

// Encode is the inverse of DecodeBytes. Levels outside what a uint16 can
// carry are clamped.
func Encode(level float64) []byte {
	scaled := math.Round(level * 100)
	if scaled < 0 {
		scaled = 0
	}
	if scaled > math.MaxUint16 {
		scaled = math.MaxUint16
	}
	out := make([]byte, levelPayloadLen)
	binary.BigEndian.PutUint16(out, uint16(scaled))
	return out
}

func detect(raw string) Encoding {
	if strings.Contains(raw, "=") {
		return EncodingBase64
	}
	for _, c := range raw {
		if !isHexDigit(c) {
			return EncodingBase64
		}
	}
	return EncodingHex
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// ChirpStack pads its base64; unpadded input is accepted too.
func decodeBase64(raw string) ([]byte, error) {
	if !strings.HasSuffix(raw, "=") && len(raw)%4 != 0 {
		return base64.RawStdEncoding.DecodeString(raw)
	}
	return base64.StdEncoding.DecodeString(raw)
}
