package codec_test

import (
	"errors"
	"strings"
	"testing"

	"simplstream/internal/codec"
	"simplstream/models"
)

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"a",
		`{"profile":{"id":"p1","name":"Ana"},"version":"1.0"}`,
		"x",
		"line\nbreak\ttab\r\x00nul\x1f",
		"café crème",
		"日本語のタイトル",
		"emoji 🎬🍿 pair",
		strings.Repeat("long payload that wraps the key several times ", 40),
	}

	for _, tc := range cases {
		encoded := codec.Encode(tc)
		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)) returned error: %v", tc, err)
		}
		if decoded != tc {
			t.Fatalf("round trip mismatch: got %q want %q", decoded, tc)
		}
	}
}

func TestInvalidUTF8DecodesAsReplacement(t *testing.T) {
	got, err := codec.Decode(codec.Encode("ok\xffok"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "ok\uFFFDok" {
		t.Fatalf("decoded %q, want replacement character", got)
	}
}

func TestEncodeMatchesLegacyFormat(t *testing.T) {
	// '{' ^ 'x' = 0x03, '}' ^ 'K' = 0x36
	if got := codec.Encode("{}"); got != "AzY=" {
		t.Fatalf("Encode({}) = %q, want AzY=", got)
	}
	if got := codec.Encode(""); got != "" {
		t.Fatalf("Encode(\"\") = %q, want empty", got)
	}
}

func TestEncodeIsNotPlaintext(t *testing.T) {
	payload := `{"profile":{"name":"secret"}}`
	if strings.Contains(codec.Encode(payload), "secret") {
		t.Fatalf("encoded payload leaks plaintext")
	}
}

func TestDecodeToleratesWhitespaceAndMissingPadding(t *testing.T) {
	decoded, err := codec.Decode("  AzY  \n")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if decoded != "{}" {
		t.Fatalf("Decode = %q, want {}", decoded)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, input := range []string{"***not base64***", "~A", "~AA=="} {
		if _, err := codec.Decode(input); !errors.Is(err, models.ErrInvalidFormat) {
			t.Fatalf("Decode(%q) error = %v, want ErrInvalidFormat", input, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Version string `json:"version"`
	}
	if err := codec.DecodeJSON(codec.Encode(`{"version":"1.0"}`), &v); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if v.Version != "1.0" {
		t.Fatalf("unexpected version %q", v.Version)
	}

	err := codec.DecodeJSON(codec.Encode("definitely not json"), &v)
	if !errors.Is(err, models.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat for garbage, got %v", err)
	}
}
