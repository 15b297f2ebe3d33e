// Package frame runs per-frame callbacks on top of a Host's frame requests.
package frame

import (
	"sync"
	"time"
)

// NominalDelta is the fixed timestep handed to main-queue subscribers.
const NominalDelta = time.Second / 60

// Info describes the frame being run.
type Info struct {
	Delta     time.Duration
	Timestamp time.Duration
}

// A Subscriber is called once per frame. Implementations must be comparable;
// pointer types are the usual choice.
type Subscriber interface {
	Frame(info Info)
}

// FuncSubscriber gives a plain function a stable identity so that it can be
// queued and later removed.
type FuncSubscriber struct {
	fn func(Info)
}

// Func wraps fn in a Subscriber.
func Func(fn func(Info)) *FuncSubscriber {
	return &FuncSubscriber{fn: fn}
}

// Frame calls the wrapped function.
func (f *FuncSubscriber) Frame(info Info) {
	f.fn(info)
}

// Schedule drives two queues of subscribers from a Host. The main queue gets
// NominalDelta every frame; the keep-alive queue gets the measured time between
// frames.
type Schedule struct {
	host Host

	mu        sync.Mutex
	frames    []Subscriber
	keepAlive map[Subscriber]bool

	mainHandle  Handle
	aliveHandle Handle
	mainActive  bool
	aliveActive bool

	lastTimestamp time.Duration
	hasTimestamp  bool
}

// NewSchedule creates a Schedule that requests frames from host.
func NewSchedule(host Host) *Schedule {
	s := new(Schedule)
	s.host = host
	s.keepAlive = make(map[Subscriber]bool)
	return s
}

// Queue adds sub to the main queue, and to the keep-alive queue if keepAlive is
// set, then starts both loops if they are not already running. Queueing a
// subscriber twice stores it once.
func (s *Schedule) Queue(sub Subscriber, keepAlive bool) *Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(sub) < 0 {
		s.frames = append(s.frames, sub)
	}
	if keepAlive {
		s.keepAlive[sub] = true
	}

	s.startMain()
	s.startKeepAlive()

	return s
}

// Remove takes sub out of both queues. Once the main queue is empty both loops
// stop and the measured timestamp is forgotten.
func (s *Schedule) Remove(sub Subscriber) *Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(sub); i >= 0 {
		s.frames = append(s.frames[:i], s.frames[i+1:]...)
	}
	delete(s.keepAlive, sub)

	if len(s.frames) == 0 {
		s.stop()
	}

	return s
}

// Clear empties both queues and stops both loops.
func (s *Schedule) Clear() *Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = nil
	s.keepAlive = make(map[Subscriber]bool)
	s.stop()

	return s
}

// Frames returns a copy of the main queue in insertion order.
func (s *Schedule) Frames() []Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Subscriber, len(s.frames))
	copy(out, s.frames)
	return out
}

// Running reports whether either loop has a frame outstanding.
func (s *Schedule) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mainActive || s.aliveActive
}

func (s *Schedule) indexOf(sub Subscriber) int {
	for i, f := range s.frames {
		if f == sub {
			return i
		}
	}
	return -1
}

// startMain arms the main loop. A request already outstanding is kept, since
// it may belong to the frame being fired right now.
func (s *Schedule) startMain() {
	s.mainActive = true
	if s.mainHandle == 0 {
		s.mainHandle = s.host.RequestFrame(s.runMain)
	}
}

func (s *Schedule) startKeepAlive() {
	s.aliveActive = true
	if s.aliveHandle == 0 {
		s.aliveHandle = s.host.RequestFrame(s.runKeepAlive)
	}
}

func (s *Schedule) stop() {
	if s.mainHandle != 0 {
		s.host.CancelFrame(s.mainHandle)
		s.mainHandle = 0
	}
	if s.aliveHandle != 0 {
		s.host.CancelFrame(s.aliveHandle)
		s.aliveHandle = 0
	}
	s.mainActive = false
	s.aliveActive = false
	s.hasTimestamp = false
	s.lastTimestamp = 0
}

func (s *Schedule) runMain(timestamp time.Duration) {
	s.mu.Lock()
	s.mainHandle = 0
	batch := make([]Subscriber, 0, len(s.frames))
	for _, sub := range s.frames {
		if !s.keepAlive[sub] {
			batch = append(batch, sub)
		}
	}
	s.mu.Unlock()

	info := Info{Delta: NominalDelta, Timestamp: timestamp}
	for _, sub := range batch {
		sub.Frame(info)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A subscriber may have restarted or stopped the loop while it ran.
	if s.mainActive && s.mainHandle == 0 {
		s.mainHandle = s.host.RequestFrame(s.runMain)
	}
}

func (s *Schedule) runKeepAlive(timestamp time.Duration) {
	s.mu.Lock()
	s.aliveHandle = 0
	var batch []Subscriber
	delta := timestamp - s.lastTimestamp
	if s.hasTimestamp {
		for _, sub := range s.frames {
			if s.keepAlive[sub] {
				batch = append(batch, sub)
			}
		}
	}
	s.lastTimestamp = timestamp
	s.hasTimestamp = true
	s.mu.Unlock()

	info := Info{Delta: delta, Timestamp: timestamp}
	for _, sub := range batch {
		sub.Frame(info)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aliveActive && s.aliveHandle == 0 {
		s.aliveHandle = s.host.RequestFrame(s.runKeepAlive)
	}
}
