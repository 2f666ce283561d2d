// Package audio turns the backend's base64 PCM payloads into playable
// sample buffers and owns the single active playback handle.
package audio

import "encoding/binary"

// Audio parameters fixed by the backend contract.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// sextets maps a byte to its base64 value, -1 for characters outside
// the alphabet and -2 for the pad character.
var sextets = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	t['='] = -2
	return t
}()

// DecodeBase64 decodes a base64 string using the standard RFC alphabet.
// Characters outside [A-Za-z0-9+/=] are stripped first, so payloads
// that arrive line-wrapped or padded with whitespace decode cleanly.
// A pad character in either of a quartet's last two positions
// suppresses the corresponding trailing byte(s). A trailing partial
// quartet is dropped rather than reported as an error.
func DecodeBase64(s string) []byte {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if sextets[s[i]] != -1 {
			clean = append(clean, s[i])
		}
	}

	out := make([]byte, 0, len(clean)/4*3)
	for i := 0; i+3 < len(clean); i += 4 {
		v0 := sextets[clean[i]]
		v1 := sextets[clean[i+1]]
		v2 := sextets[clean[i+2]]
		v3 := sextets[clean[i+3]]
		if v0 < 0 || v1 < 0 {
			continue
		}
		b0, b1 := byte(v0), byte(v1)

		out = append(out, b0<<2|b1>>4)
		if v2 < 0 {
			continue
		}
		b2 := byte(v2)
		out = append(out, b1<<4|b2>>2)
		if v3 < 0 {
			continue
		}
		out = append(out, b2<<6|byte(v3))
	}
	return out
}

// DecodePCM16 reinterprets data as interleaved signed 16-bit
// little-endian samples and de-interleaves them into one normalized
// float buffer per channel. Normalization divides by 32768, so full-
// scale negative maps to exactly -1.0 and full-scale positive to just
// under +1.0 — the asymmetry is deliberate and must be preserved for
// bit-compatible playback. A trailing odd byte and any partial frame
// are silently dropped.
func DecodePCM16(data []byte, channels int) [][]float32 {
	if channels <= 0 {
		return nil
	}

	sampleCount := len(data) / 2
	frameCount := sampleCount / channels

	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frameCount)
		for i := 0; i < frameCount; i++ {
			v := int16(binary.LittleEndian.Uint16(data[2*(i*channels+c):]))
			out[c][i] = float32(v) / 32768.0
		}
	}
	return out
}
