package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	data, err := EncodeWAV(pcm, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	if len(data) < 44 {
		t.Fatalf("wav payload too short: %d bytes", len(data))
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q", data[:12])
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode wav: %v", err)
	}
	if buf.Format.SampleRate != 16000 || buf.Format.NumChannels != 1 {
		t.Fatalf("unexpected format %+v", buf.Format)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buf.Data))
	}
	for i, want := range samples {
		if buf.Data[i] != int(want) {
			t.Fatalf("sample %d: expected %d, got %d", i, want, buf.Data[i])
		}
	}
}

func TestWriteWAVRejectsOddPayload(t *testing.T) {
	if _, err := EncodeWAV([]byte{1, 2, 3}, 16000, 1); err == nil {
		t.Fatalf("expected error for unaligned pcm")
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		bytes    int
		rate     int
		channels int
		want     time.Duration
	}{
		{32000, 16000, 1, time.Second},
		{3200, 16000, 1, 100 * time.Millisecond},
		{64000, 16000, 2, time.Second},
		{0, 16000, 1, 0},
		{32000, 0, 1, 0},
	}
	for _, tc := range cases {
		if got := Duration(tc.bytes, tc.rate, tc.channels); got != tc.want {
			t.Fatalf("Duration(%d,%d,%d) = %v, want %v", tc.bytes, tc.rate, tc.channels, got, tc.want)
		}
	}
}
