package audio

import (
	"bytes"
	"encoding/base64"
	"math/rand"
	"testing"
)

func TestDecodeBase64RoundTrip(t *testing.T) {
	// Canonical encodings of every length 0-300 must decode to the
	// original bytes, covering 0, 1, and 2 trailing pad characters.
	rng := rand.New(rand.NewSource(42))
	for n := 0; n <= 300; n++ {
		raw := make([]byte, n)
		rng.Read(raw)

		decoded := DecodeBase64(base64.StdEncoding.EncodeToString(raw))
		if !bytes.Equal(decoded, raw) {
			t.Fatalf("length %d: round trip mismatch", n)
		}
	}
}

func TestDecodeBase64StripsJunk(t *testing.T) {
	raw := []byte("hello, quantum field")
	enc := base64.StdEncoding.EncodeToString(raw)

	// Wrap and pollute the payload the way transports do.
	wrapped := ""
	for i, ch := range enc {
		if i > 0 && i%5 == 0 {
			wrapped += "\r\n "
		}
		wrapped += string(ch)
	}

	if got := DecodeBase64(wrapped); !bytes.Equal(got, raw) {
		t.Errorf("got %q, want %q", got, raw)
	}
}

func TestDecodeBase64Padding(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"", nil},
		{"QQ==", []byte("A")},
		{"QUI=", []byte("AB")},
		{"QUJD", []byte("ABC")},
		{"QUJDRA==", []byte("ABCD")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := DecodeBase64(tt.in); !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodePCM16KnownValues(t *testing.T) {
	// Two interleaved channels of hand-picked samples.
	ints := []int16{-32768, 0, 32767, 16384, -16384, 8192}
	data := make([]byte, 0, 2*len(ints))
	for _, v := range ints {
		data = append(data, byte(uint16(v)), byte(uint16(v)>>8))
	}

	out := DecodePCM16(data, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(out))
	}

	wantCh0 := []float32{-1.0, 32767.0 / 32768.0, -0.5}
	wantCh1 := []float32{0.0, 0.5, 8192.0 / 32768.0}

	for i := range wantCh0 {
		if out[0][i] != wantCh0[i] {
			t.Errorf("ch0[%d]: got %v, want %v", i, out[0][i], wantCh0[i])
		}
		if out[1][i] != wantCh1[i] {
			t.Errorf("ch1[%d]: got %v, want %v", i, out[1][i], wantCh1[i])
		}
	}
}

func TestDecodePCM16Asymmetry(t *testing.T) {
	// Divisor is 32768, not 32767: negative full scale is exactly -1.0,
	// positive full scale is slightly below +1.0.
	out := DecodePCM16([]byte{0x00, 0x80, 0xFF, 0x7F}, 1)
	if out[0][0] != -1.0 {
		t.Errorf("-32768 should decode to exactly -1.0, got %v", out[0][0])
	}
	if out[0][1] >= 1.0 || out[0][1] < 0.9999 {
		t.Errorf("32767 should decode to just under 1.0, got %v", out[0][1])
	}
}

func TestDecodePCM16Truncation(t *testing.T) {
	// A trailing odd byte is ignored.
	out := DecodePCM16([]byte{0x00, 0x40, 0x7F}, 1)
	if len(out[0]) != 1 {
		t.Fatalf("odd byte should be dropped, got %d frames", len(out[0]))
	}

	// A partial frame (5 samples across 2 channels) is dropped.
	data := make([]byte, 10)
	out = DecodePCM16(data, 2)
	if len(out[0]) != 2 || len(out[1]) != 2 {
		t.Errorf("partial frame should be dropped: got %d/%d frames", len(out[0]), len(out[1]))
	}
}
