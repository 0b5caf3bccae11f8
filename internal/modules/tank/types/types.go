package types

import (
	"time"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

// Level bands shown on the dashboard and the console monitor.
const (
	BandGood     = "good"
	BandMedium   = "medium"
	BandLow      = "low"
	BandCritical = "critical"
)

// Current is the payload of GET /api/tank-data.
type Current struct {
	Level         float64          `json:"tank_level"`
	Voltage       float64          `json:"voltage"`
	RSSI          int              `json:"rssi"`
	SNR           float64          `json:"snr"`
	Timestamp     *time.Time       `json:"timestamp"`
	Status        telemetry.Status `json:"status"`
	FrameCount    uint32           `json:"frame_count"`
	HistoryLength int              `json:"history_length"`
	Capacity      int              `json:"capacity"`
	SamplesTotal  uint64           `json:"samples_total"`
	LevelBand     string           `json:"level_band"`
}

// LevelBand classifies a tank level percentage.
func LevelBand(level float64) string {
	switch {
	case level > 75:
		return BandGood
	case level > 40:
		return BandMedium
	case level > 20:
		return BandLow
	default:
		return BandCritical
	}
}
