package service

import (
	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/types"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

// TankService is the read side used by the HTTP controller.
type TankService interface {
	Current() types.Current
	History(limit int) []telemetry.Sample
	State(limit int) (types.Current, []telemetry.Sample)
	Capacity() int
}

type Query struct {
	store *telemetry.Store
}

func NewQuery(store *telemetry.Store) *Query {
	return &Query{store: store}
}

func (q *Query) Capacity() int {
	return q.store.Capacity()
}

// Current returns the latest reading and store counters.
func (q *Query) Current() types.Current {
	return current(q.store.Snapshot(), q.store.Capacity())
}

// History returns retained samples oldest first. A positive limit keeps
// only the most recent limit samples.
func (q *Query) History(limit int) []telemetry.Sample {
	return tail(q.store.Snapshot().History, limit)
}

// State returns Current and History taken from the same snapshot.
func (q *Query) State(limit int) (types.Current, []telemetry.Sample) {
	snap := q.store.Snapshot()
	return current(snap, q.store.Capacity()), tail(snap.History, limit)
}

func current(snap telemetry.Snapshot, capacity int) types.Current {
	c := types.Current{
		Status:        snap.Status,
		HistoryLength: len(snap.History),
		Capacity:      capacity,
		SamplesTotal:  snap.Accepted,
	}
	if snap.Latest == nil {
		return c
	}
	ts := snap.Latest.Timestamp
	c.Level = snap.Latest.Level
	c.Voltage = snap.Latest.Voltage
	c.RSSI = snap.Latest.RSSI
	c.SNR = snap.Latest.SNR
	c.Timestamp = &ts
	c.FrameCount = snap.Latest.FrameCount
	c.LevelBand = types.LevelBand(snap.Latest.Level)
	return c
}

func tail(history []telemetry.Sample, limit int) []telemetry.Sample {
	if limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}
	return history
}
