// Package telemetry holds the shared state of the monitored tank: the
// latest accepted sample and a bounded window of recent samples.
//
// Store is the only owner of that state. The ingest path is its single
// writer; HTTP handlers read it through Snapshot from any goroutine.
package telemetry

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of samples kept when no capacity is
// configured.
const DefaultHistorySize = 100

type Status string

const (
	// StatusWaiting means no sample has been accepted yet.
	StatusWaiting Status = "waiting"
	// StatusOnline is set by the first accepted sample and never cleared.
	StatusOnline Status = "online"
)

// Sample is one decoded uplink from the tank sensor.
type Sample struct {
	Level      float64   `json:"tank_level"`
	Voltage    float64   `json:"voltage"`
	RSSI       int       `json:"rssi"`
	SNR        float64   `json:"snr"`
	Timestamp  time.Time `json:"timestamp"`
	FrameCount uint32    `json:"frame_count"`
}

// Snapshot is an independent copy of the store. Callers may keep and
// modify it freely.
type Snapshot struct {
	Latest   *Sample
	Status   Status
	History  []Sample // oldest first
	Accepted uint64
}

// Store keeps the latest sample and a fixed-capacity ring of the most
// recent samples. When the ring is full each write evicts the oldest
// sample. All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	latest    Sample
	hasLatest bool

	ring []Sample
	// head is the ring index of the oldest retained sample.
	head  int
	count int

	accepted uint64
}

// NewStore creates an empty store in the waiting state. A capacity <= 0
// selects DefaultHistorySize.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &Store{ring: make([]Sample, capacity)}
}

func (s *Store) Capacity() int {
	return len(s.ring)
}

// Write accepts a sample: it becomes the latest sample, the status goes
// online and the sample is appended to the history. Readers observe either
// none or all of that.
//
// Accepted timestamps never go backwards; a sample stamped before the
// previous one takes the previous timestamp. The accepted sample is
// returned.
func (s *Store) Write(sample Sample) Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLatest && sample.Timestamp.Before(s.latest.Timestamp) {
		sample.Timestamp = s.latest.Timestamp
	}

	capacity := len(s.ring)
	if s.count < capacity {
		s.ring[(s.head+s.count)%capacity] = sample
		s.count++
	} else {
		s.ring[s.head] = sample
		s.head = (s.head + 1) % capacity
	}

	s.latest = sample
	s.hasLatest = true
	s.accepted++

	return sample
}

// Snapshot copies the current state. The read lock is held only for the
// copy, which is bounded by the store capacity.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:   StatusWaiting,
		History:  make([]Sample, s.count),
		Accepted: s.accepted,
	}
	if s.hasLatest {
		latest := s.latest
		snap.Latest = &latest
		snap.Status = StatusOnline
	}

	capacity := len(s.ring)
	for i := 0; i < s.count; i++ {
		snap.History[i] = s.ring[(s.head+i)%capacity]
	}
	return snap
}

// Status reports whether any sample has been accepted.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hasLatest {
		return StatusOnline
	}
	return StatusWaiting
}
