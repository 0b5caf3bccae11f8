// Package samplelog appends accepted samples to a CSV file. The file is
// write-only from the server's point of view.
package samplelog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

// TimeLayout is the timestamp format of the log.
const TimeLayout = "2006-01-02 15:04:05"

// Header is written once, when the file is new or empty.
var Header = []string{"timestamp", "tank_level_percent", "frame_count", "rssi_dbm", "snr_db"}

// Row formats a sample as a log line.
func Row(s telemetry.Sample) []string {
	return []string{
		s.Timestamp.Format(TimeLayout),
		strconv.FormatFloat(s.Level, 'f', 2, 64),
		strconv.FormatUint(uint64(s.FrameCount), 10),
		strconv.Itoa(s.RSSI),
		strconv.FormatFloat(s.SNR, 'f', -1, 64),
	}
}

// WriteCSV writes the header followed by one row per sample.
func WriteCSV(w io.Writer, samples []telemetry.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write(Row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVRecorder appends one row per accepted sample. The file is opened per
// write, so it can be moved or truncated while the server runs.
type CSVRecorder struct {
	path string
	mu   sync.Mutex
}

func NewCSVRecorder(path string) (*CSVRecorder, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return &CSVRecorder{path: path}, nil
}

func (r *CSVRecorder) Path() string {
	return r.path
}

// Record implements service.SampleRecorder.
func (r *CSVRecorder) Record(_ context.Context, _ string, s telemetry.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open sample log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat sample log: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(Header); err != nil {
			_ = f.Close()
			return fmt.Errorf("write sample log header: %w", err)
		}
	}
	if err := cw.Write(Row(s)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sample log row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush sample log: %w", err)
	}
	return f.Close()
}
