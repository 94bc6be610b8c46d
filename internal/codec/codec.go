// Package codec implements the reversible transform applied to profile export
// files.
//
// The payload is XORed, one UTF-16 code unit at a time, with a fixed key that
// repeats over the payload, then base64 encoded. This is obfuscation: anyone
// holding the key (it ships with every client) can read an export. Do not
// treat encoded data as secret.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"

	"simplstream/models"
)

const key = "xK9mP2nQ7wR4tY8uI3oL6aS1dF5gH0jZ9cV8bN7mM2xK4wQ3pL6rT9yU2iO5aS8dF1gH4jK7zC0vB3nN6mX9qW2eR5tY8uI1oP4lK7aS0dF3gH6jZ9cV2bN5mM8xK1wQ4pL7rT0yU3iO6aS9dF2gH5jK8zC1vB4nN7mX0qW3eR6tY9uI2oP5lK8aS1dF4gH7jZ0"

// widePrefix marks payloads containing code units that do not fit in a byte.
// It is outside the base64 alphabet, so it can never begin a narrow payload.
const widePrefix = "~"

var keyUnits = utf16.Encode([]rune(key))

// Encode obfuscates plaintext. When every XORed code unit fits in one byte the
// output is plain base64 of those bytes; otherwise each unit is written as two
// big-endian bytes behind widePrefix.
//
// Encode works on text. Bytes that are not valid UTF-8 are replaced with
// U+FFFD before encoding, so Decode returns the replaced string rather than
// the original bytes. JSON produced by encoding/json is always valid UTF-8.
func Encode(plaintext string) string {
	units := xor(utf16.Encode([]rune(plaintext)))

	narrow := true
	for _, u := range units {
		if u > 0xFF {
			narrow = false
			break
		}
	}

	if narrow {
		buf := make([]byte, len(units))
		for i, u := range units {
			buf[i] = byte(u)
		}
		return base64.StdEncoding.EncodeToString(buf)
	}

	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.BigEndian.PutUint16(buf[2*i:], u)
	}
	return widePrefix + base64.StdEncoding.EncodeToString(buf)
}

// Decode reverses Encode. Malformed input yields an error wrapping
// models.ErrInvalidFormat.
func Decode(ciphertext string) (string, error) {
	trimmed := strings.TrimSpace(ciphertext)

	wide := strings.HasPrefix(trimmed, widePrefix)
	if wide {
		trimmed = strings.TrimPrefix(trimmed, widePrefix)
	}

	raw, err := decodeBase64(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", models.ErrInvalidFormat, err)
	}

	var units []uint16
	if wide {
		if len(raw)%2 != 0 {
			return "", fmt.Errorf("%w: odd payload length %d", models.ErrInvalidFormat, len(raw))
		}
		units = make([]uint16, len(raw)/2)
		for i := range units {
			units[i] = binary.BigEndian.Uint16(raw[2*i:])
		}
	} else {
		units = make([]uint16, len(raw))
		for i, b := range raw {
			units[i] = uint16(b)
		}
	}

	return string(utf16.Decode(xor(units))), nil
}

// DecodeJSON decodes ciphertext and unmarshals the recovered JSON into dst.
func DecodeJSON(ciphertext string, dst any) error {
	plaintext, err := Decode(ciphertext)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plaintext), dst); err != nil {
		return fmt.Errorf("%w: json: %v", models.ErrInvalidFormat, err)
	}
	return nil
}

func xor(units []uint16) []uint16 {
	for i := range units {
		units[i] ^= keyUnits[i%len(keyUnits)]
	}
	return units
}

func decodeBase64(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return raw, nil
	}
	// Hand-edited files sometimes lose their padding.
	if unpadded, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return unpadded, nil
	}
	return nil, err
}
