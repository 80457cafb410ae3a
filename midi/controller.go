package midi

import (
	"context"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-vizmix/errkind"
)

// CCEvent is one qualifying Control-Change message. Only CCs inside
// [MinCC, MaxCC] ever reach a subscriber; everything else is dropped at
// ingestion before any callback runs.
type CCEvent struct {
	CC         int
	Value      int
	Channel    uint8
	Normalized float64
	Timestamp  time.Time
}

// DeviceEvent is emitted when input devices connect or disconnect.
type DeviceEvent struct {
	Type DeviceEventType
	ID   string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceInfo describes one managed input port.
type DeviceInfo struct {
	ID     string
	Name   string
	Active bool
}

type inputDevice struct {
	id   string
	port drivers.In
	stop func()
}

// Controller owns the external MIDI input connection lifecycle. It listens
// on every connected input port, hard-filters to the CC bank range, and
// fans qualifying events out to subscribers.
type Controller struct {
	mu          sync.RWMutex
	devices     map[string]*inputDevice
	activeID    string
	ready       bool
	subscribers []func(CCEvent)

	events   chan DeviceEvent
	pollRate time.Duration
	log      *logrus.Entry
}

// NewController creates an uninitialized controller.
func NewController() *Controller {
	return &Controller{
		devices:  make(map[string]*inputDevice),
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
		log:      logrus.WithField("component", "midi"),
	}
}

// Subscribe registers a CC listener. Subscribers accumulate.
func (c *Controller) Subscribe(fn func(CCEvent)) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

// Events returns the device connect/disconnect channel.
func (c *Controller) Events() <-chan DeviceEvent {
	return c.events
}

// Initialize opens every currently connected input port and designates the
// first one as active. Safe to call again after a failure.
func (c *Controller) Initialize() error {
	if drivers.Get() == nil {
		return fault.New("no MIDI driver available",
			fmsg.WithDesc("midi unavailable",
				"This platform has no MIDI capability; MIDI control stays inactive."),
			ftag.With(errkind.UnsupportedCapability))
	}

	inPorts := gomidi.GetInPorts()
	for i := range inPorts {
		if err := c.attach(inPorts[i]); err != nil {
			c.log.WithError(err).WithField("port", inPorts[i].String()).
				Warn("could not open MIDI input")
		}
	}

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	return nil
}

// attach opens one input port and wires the CC filter.
func (c *Controller) attach(port drivers.In) error {
	id := port.String()

	c.mu.RLock()
	_, exists := c.devices[id]
	c.mu.RUnlock()
	if exists {
		return nil
	}

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		var channel, cc, value uint8
		// Only Control-Change status bytes are interpreted here.
		if !msg.GetControlChange(&channel, &cc, &value) {
			return
		}
		if !InRange(int(cc)) {
			return
		}
		c.emit(CCEvent{
			CC:         int(cc),
			Value:      int(value),
			Channel:    channel,
			Normalized: float64(value) / 127.0,
			Timestamp:  time.Now(),
		})
	})
	if err != nil {
		return fault.Wrap(err,
			fmsg.With("open MIDI input "+id),
			ftag.With(errkind.PermissionDenied))
	}

	c.mu.Lock()
	c.devices[id] = &inputDevice{id: id, port: port, stop: stop}
	if c.activeID == "" {
		c.activeID = id
	}
	c.mu.Unlock()

	select {
	case c.events <- DeviceEvent{Type: DeviceConnected, ID: id}:
	default:
	}
	c.log.WithField("port", id).Info("MIDI input connected")
	return nil
}

// emit fans one event out to the current subscriber set.
func (c *Controller) emit(ev CCEvent) {
	c.mu.RLock()
	subs := make([]func(CCEvent), len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Run polls for hot-plugged devices until ctx is done (run in a goroutine).
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.pollRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.scan()
		}
	}
}

// scan diffs the port list against the managed set, attaching new devices
// and detaching vanished ones. If the active device vanished, an arbitrary
// remaining device becomes active.
func (c *Controller) scan() {
	c.mu.RLock()
	ready := c.ready
	c.mu.RUnlock()
	if !ready {
		return
	}

	inPorts := gomidi.GetInPorts()
	seen := make(map[string]bool, len(inPorts))
	for i := range inPorts {
		seen[inPorts[i].String()] = true
		if err := c.attach(inPorts[i]); err != nil {
			continue
		}
	}

	c.mu.Lock()
	var removed []string
	for id, dev := range c.devices {
		if seen[id] {
			continue
		}
		dev.stop()
		delete(c.devices, id)
		removed = append(removed, id)
	}
	if !seen[c.activeID] {
		c.activeID = ""
		for id := range c.devices {
			c.activeID = id
			break
		}
	}
	c.mu.Unlock()

	for _, id := range removed {
		select {
		case c.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}:
		default:
		}
		c.log.WithField("port", id).Info("MIDI input disconnected")
	}
}

// ActiveDevice returns the display name of the active input, or "".
func (c *Controller) ActiveDevice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeID
}

// Devices lists the managed inputs with the active one flagged.
func (c *Controller) Devices() []DeviceInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DeviceInfo, 0, len(c.devices))
	for id := range c.devices {
		out = append(out, DeviceInfo{ID: id, Name: id, Active: id == c.activeID})
	}
	return out
}

// Ready reports whether Initialize has succeeded.
func (c *Controller) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Range returns the inclusive CC bank bounds.
func (c *Controller) Range() (min, max int) {
	return MinCC, MaxCC
}

// Dispose detaches every handler and clears the device set. Idempotent.
func (c *Controller) Dispose() {
	c.mu.Lock()
	for id, dev := range c.devices {
		dev.stop()
		delete(c.devices, id)
	}
	c.activeID = ""
	c.ready = false
	c.mu.Unlock()
}
