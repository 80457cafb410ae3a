package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func pcmBytes(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func TestLatestReturnsNewestSamples(t *testing.T) {
	s := newPCMSource(io.NopCloser(bytes.NewReader(nil)), 4)
	s.push(pcmBytes(100, 200, 300, 400, 500, 600))

	out := make([]float64, 4)
	n := s.Latest(out)
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
	want := []float64{300.0 / 32768, 400.0 / 32768, 500.0 / 32768, 600.0 / 32768}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestLatestPartialWindow(t *testing.T) {
	s := newPCMSource(io.NopCloser(bytes.NewReader(nil)), 8)
	s.push(pcmBytes(1, 2, 3))

	out := make([]float64, 8)
	if n := s.Latest(out); n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
}

func TestSampleSplitAcrossReads(t *testing.T) {
	s := newPCMSource(io.NopCloser(bytes.NewReader(nil)), 4)
	b := pcmBytes(1000, 2000, 3000)
	// Deliver on an odd boundary so a sample straddles two pushes.
	s.push(b[:3])
	s.push(b[3:])

	out := make([]float64, 3)
	if n := s.Latest(out); n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	want := []float64{1000.0 / 32768, 2000.0 / 32768, 3000.0 / 32768}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestSourceReadsPipe(t *testing.T) {
	r := io.NopCloser(bytes.NewReader(pcmBytes(10, 20, 30, 40)))
	s := newPCMSource(r, 4)
	s.run()

	out := make([]float64, 4)
	if n := s.Latest(out); n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
	if out[3] != 40.0/32768 {
		t.Fatalf("out[3] = %v, want %v", out[3], 40.0/32768)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := newPCMSource(io.NopCloser(bytes.NewReader(nil)), 4)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
