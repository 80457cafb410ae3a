package audio

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	samples []float64
	closed  int
}

func (f *fakeSource) Latest(out []float64) int {
	n := copy(out, f.samples)
	return n
}

func (f *fakeSource) Close() error {
	f.closed++
	return nil
}

func testEngine(src Source) *Engine {
	e := NewEngine(Config{SampleRate: 44100, FFTSize: 2048})
	e.openSource = func(context.Context, Config) (Source, error) {
		return src, nil
	}
	return e
}

func TestEngineLifecycle(t *testing.T) {
	src := &fakeSource{samples: make([]float64, 2048)}
	e := testEngine(src)

	if e.State() != Uninitialized {
		t.Fatalf("state = %v, want uninitialized", e.State())
	}
	if snap := e.Update(); snap != nil {
		t.Fatal("Update before Initialize returned a snapshot")
	}

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if e.State() != Ready {
		t.Fatalf("state = %v, want ready", e.State())
	}
	if snap := e.Update(); snap != nil {
		t.Fatal("Update before Start returned a snapshot")
	}

	e.Start()
	if e.State() != Running {
		t.Fatalf("state = %v, want running", e.State())
	}
	snap := e.Update()
	if snap == nil {
		t.Fatal("Update while running returned nil")
	}
	if len(snap.Spectrum) != 1024 {
		t.Fatalf("spectrum has %d bins, want 1024", len(snap.Spectrum))
	}

	e.Stop()
	if e.State() != Ready {
		t.Fatalf("state after Stop = %v, want ready", e.State())
	}
	if snap := e.Update(); snap != nil {
		t.Fatal("Update after Stop returned a snapshot")
	}
}

func TestInitializeWhileRunningIsNoop(t *testing.T) {
	calls := 0
	src := &fakeSource{samples: make([]float64, 2048)}
	e := NewEngine(Config{SampleRate: 44100, FFTSize: 2048})
	e.openSource = func(context.Context, Config) (Source, error) {
		calls++
		return src, nil
	}

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	e.Start()
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("re-Initialize: %v", err)
	}
	if calls != 1 {
		t.Fatalf("capture opened %d times, want 1", calls)
	}
	if e.State() != Running {
		t.Fatalf("state = %v, want running", e.State())
	}
}

func TestInitializeFailureIsRetryable(t *testing.T) {
	fail := true
	src := &fakeSource{samples: make([]float64, 2048)}
	e := NewEngine(Config{SampleRate: 44100, FFTSize: 2048})
	e.openSource = func(context.Context, Config) (Source, error) {
		if fail {
			return nil, errors.New("device busy")
		}
		return src, nil
	}

	if err := e.Initialize(context.Background()); err == nil {
		t.Fatal("Initialize succeeded, want error")
	}
	if e.State() != Uninitialized {
		t.Fatalf("state after failure = %v, want uninitialized", e.State())
	}

	fail = false
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if e.State() != Ready {
		t.Fatalf("state after retry = %v, want ready", e.State())
	}
}

func TestDisposeIdempotentAndReinit(t *testing.T) {
	src := &fakeSource{samples: make([]float64, 2048)}
	e := testEngine(src)

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	e.Start()

	e.Dispose()
	e.Dispose()
	if src.closed != 1 {
		t.Fatalf("source closed %d times, want 1", src.closed)
	}
	if e.State() != Disposed {
		t.Fatalf("state = %v, want disposed", e.State())
	}
	if snap := e.Update(); snap != nil {
		t.Fatal("Update after Dispose returned a snapshot")
	}

	// The device may be re-acquired after Dispose.
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("re-Initialize after Dispose: %v", err)
	}
	if e.State() != Ready {
		t.Fatalf("state = %v, want ready", e.State())
	}
}

func TestGainClamped(t *testing.T) {
	e := testEngine(&fakeSource{})
	e.SetGain(5)
	if e.gain != 2 {
		t.Fatalf("gain = %v, want 2", e.gain)
	}
	e.SetGain(-1)
	if e.gain != 0 {
		t.Fatalf("gain = %v, want 0", e.gain)
	}
}
