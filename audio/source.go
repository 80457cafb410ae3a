package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os/exec"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/sirupsen/logrus"

	"go-vizmix/errkind"
)

// Source delivers live mono samples to the engine. The engine pulls the
// most recent window once per tick; the source buffers just enough history
// to fill one transform, keeping added latency at the capture buffer size.
type Source interface {
	// Latest copies the most recent len(out) samples into out and reports
	// how many were available.
	Latest(out []float64) int
	Close() error
}

// PCMSource reads s16le mono PCM from a capture process's pipe and keeps a
// rolling window of the newest samples. The capture command is expected to
// run with echo cancellation, noise suppression, and automatic gain
// disabled, at the lowest latency the device offers.
type PCMSource struct {
	r      io.ReadCloser
	cmd    *exec.Cmd
	cancel context.CancelFunc

	mu   sync.Mutex
	ring []float64
	w    int
	full bool

	carry    [1]byte
	hasCarry bool

	closeOnce sync.Once
	log       *logrus.Entry
}

// StartCommand launches argv and reads its stdout as s16le mono PCM.
// window is the number of samples of history to retain (one FFT's worth).
func StartCommand(ctx context.Context, argv []string, window int) (*PCMSource, error) {
	if len(argv) == 0 {
		return nil, fault.New("empty capture command",
			ftag.With(errkind.UnsupportedCapability))
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fault.Wrap(err,
			fmsg.With("open capture pipe"),
			ftag.With(errkind.UnsupportedCapability))
	}
	if err := cmd.Start(); err != nil {
		cancel()
		kind := errkind.PermissionDenied
		if errors.Is(err, exec.ErrNotFound) {
			// No capture tool at all: the platform can't do audio input.
			kind = errkind.UnsupportedCapability
		}
		return nil, fault.Wrap(err,
			fmsg.With("start capture process "+argv[0]),
			ftag.With(kind))
	}

	s := newPCMSource(stdout, window)
	s.cmd = cmd
	s.cancel = cancel
	go s.run()
	return s, nil
}

// newPCMSource wraps any s16le PCM reader; used directly by tests.
func newPCMSource(r io.ReadCloser, window int) *PCMSource {
	return &PCMSource{
		r:    r,
		ring: make([]float64, window),
		log:  logrus.WithField("component", "capture"),
	}
}

// run decodes the pipe until it closes. Partial reads are fine; waiting to
// fill a large buffer would add capture latency.
func (s *PCMSource) run() {
	buf := make([]byte, 4096)
	for {
		n, err := s.r.Read(buf)
		if n > 0 {
			s.push(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				s.log.WithError(err).Debug("capture read ended")
			}
			return
		}
	}
}

func (s *PCMSource) push(b []byte) {
	s.mu.Lock()
	i := 0
	if s.hasCarry && len(b) > 0 {
		// A sample split across reads; stitch it back together.
		v := int16(uint16(s.carry[0]) | uint16(b[0])<<8)
		s.write(v)
		s.hasCarry = false
		i = 1
	}
	for ; i+1 < len(b); i += 2 {
		s.write(int16(binary.LittleEndian.Uint16(b[i:])))
	}
	if i < len(b) {
		s.carry[0] = b[i]
		s.hasCarry = true
	}
	s.mu.Unlock()
}

func (s *PCMSource) write(v int16) {
	s.ring[s.w] = float64(v) / 32768.0
	s.w++
	if s.w == len(s.ring) {
		s.w = 0
		s.full = true
	}
}

// Latest copies the newest samples, oldest first, into out.
func (s *PCMSource) Latest(out []float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	have := s.w
	if s.full {
		have = len(s.ring)
	}
	n := len(out)
	if n > have {
		n = have
	}
	// Walk backwards from the write cursor.
	idx := s.w
	for i := n - 1; i >= 0; i-- {
		idx--
		if idx < 0 {
			idx = len(s.ring) - 1
		}
		out[i] = s.ring[idx]
	}
	return n
}

// Close stops the capture process and releases the pipe. Idempotent.
func (s *PCMSource) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.r.Close()
		if s.cmd != nil {
			s.cmd.Wait()
		}
	})
	return nil
}
