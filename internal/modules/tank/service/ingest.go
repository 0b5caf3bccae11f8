package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/payload"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/uplink"
)

// ErrNotMonitored is returned for uplinks from any device other than the
// configured one.
var ErrNotMonitored = errors.New("device not monitored")

// SampleRecorder receives every accepted sample after it has been stored.
type SampleRecorder interface {
	Record(ctx context.Context, devEUI string, s telemetry.Sample) error
}

type IngestConfig struct {
	DeviceEUI   string
	Encoding    payload.Encoding
	Calibration payload.Calibration
}

// Ingester turns uplinks into samples. It is the only writer of the store.
type Ingester struct {
	store    *telemetry.Store
	cfg      IngestConfig
	recorder SampleRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewIngester returns an Ingester writing to store. recorder may be nil.
func NewIngester(store *telemetry.Store, cfg IngestConfig, recorder SampleRecorder, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		store:    store,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle filters, decodes and stores one uplink. Filtered and undecodable
// uplinks leave the store untouched and return ErrNotMonitored or a
// *payload.DecodeError.
func (i *Ingester) Handle(ctx context.Context, up uplink.Uplink) (telemetry.Sample, error) {
	devEUI := up.DevEUI()
	if !strings.EqualFold(devEUI, i.cfg.DeviceEUI) {
		return telemetry.Sample{}, fmt.Errorf("%w: %q", ErrNotMonitored, devEUI)
	}

	level, err := payload.Decode(up.Data, i.cfg.Encoding)
	if err != nil {
		return telemetry.Sample{}, err
	}

	rssi, snr := up.LinkQuality()
	sample := i.store.Write(telemetry.Sample{
		Level:      level,
		Voltage:    i.cfg.Calibration.Voltage(level),
		RSSI:       rssi,
		SNR:        snr,
		Timestamp:  i.now(),
		FrameCount: up.FrameCount(),
	})

	if i.recorder != nil {
		if err := i.recorder.Record(ctx, devEUI, sample); err != nil {
			i.logger.Error("failed to record sample",
				"dev_eui", devEUI,
				"frame_count", sample.FrameCount,
				"error", err,
			)
		}
	}
	return sample, nil
}

// OnMessage is the transport callback. Every outcome is logged; nothing is
// returned to the transport.
func (i *Ingester) OnMessage(up uplink.Uplink) {
	sample, err := i.Handle(context.Background(), up)

	var decodeErr *payload.DecodeError
	switch {
	case err == nil:
		i.logger.Info("sample accepted",
			"tank_level", sample.Level,
			"voltage", sample.Voltage,
			"rssi", sample.RSSI,
			"snr", sample.SNR,
			"frame_count", sample.FrameCount,
		)
	case errors.Is(err, ErrNotMonitored):
		i.logger.Debug("ignoring uplink", "dev_eui", up.DevEUI())
	case errors.As(err, &decodeErr):
		i.logger.Warn("failed to decode payload",
			"dev_eui", up.DevEUI(),
			"encoding", decodeErr.Encoding,
			"data", decodeErr.Raw,
			"error", decodeErr.Err,
		)
	default:
		i.logger.Error("failed to ingest uplink", "error", err)
	}
}
