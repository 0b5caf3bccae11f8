package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/config"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/logging"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/mqtt"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/payload"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/samplelog"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/uplink"
)

// watcher feeds uplinks from the subscriber to the console monitor and,
// optionally, to a CSV sample log.
type watcher struct {
	monitor *monitor
	device  string
	all     bool
	log     *samplelog.CSVRecorder
	stderr  io.Writer
	now     func() time.Time
}

func (w *watcher) handle(up uplink.Uplink) {
	eui := up.DevEUI()
	if !w.all && !strings.EqualFold(eui, w.device) {
		return
	}

	at := w.now()
	level, err := w.monitor.render(up, at)
	if err != nil || w.log == nil {
		return
	}

	rssi, snr := up.LinkQuality()
	sample := telemetry.Sample{
		Level:      level,
		Voltage:    w.monitor.calibration.Voltage(level),
		RSSI:       rssi,
		SNR:        snr,
		FrameCount: up.FrameCount(),
		Timestamp:  at,
	}
	if err := w.log.Record(context.Background(), eui, sample); err != nil {
		fmt.Fprintf(w.stderr, "sample log: %v\n", err)
	}
}

func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	flagSet := newFlagSet("watch", stderr)
	device := flagSet.StringP("device", "d", cfg.DeviceEUI, "device EUI to show")
	all := flagSet.Bool("all", false, "show uplinks from every device")
	encodingFlag := flagSet.StringP("encoding", "e", string(cfg.PayloadEncoding), "payload encoding: base64, hex or auto")
	logPath := flagSet.String("log", "", "append decoded samples to this CSV file")
	broker := flagSet.String("broker", cfg.MQTTBroker, "MQTT broker host")
	port := flagSet.Int("port", cfg.MQTTPort, "MQTT broker port")
	topic := flagSet.String("topic", cfg.MQTTTopic, "uplink topic filter")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	enc, err := payload.ParseEncoding(*encodingFlag)
	if err != nil {
		return err
	}
	cfg.MQTTBroker = *broker
	cfg.MQTTPort = *port
	cfg.MQTTTopic = *topic
	cfg.MQTTClientID = "tankmonctl-" + uuid.NewString()[:8]

	w := &watcher{
		monitor: newMonitor(stdout, enc, cfg.Calibration),
		device:  *device,
		all:     *all,
		stderr:  stderr,
		now:     time.Now,
	}
	if *logPath != "" {
		if w.log, err = samplelog.NewCSVRecorder(*logPath); err != nil {
			return err
		}
	}

	logger := logging.NewWithWriter(stderr, cfg, version, "tankmonctl")
	sub := mqtt.NewSubscriber(cfg, logger)
	sub.SetMessageHandler(w.handle)

	if err := sub.Connect(ctx); err != nil {
		return err
	}
	defer sub.Disconnect()

	target := "device " + strings.ToLower(*device)
	if *all {
		target = "all devices"
	}
	fmt.Fprintf(stdout, "Watching %s on %s:%d (%s). Press Ctrl+C to stop.\n", target, cfg.MQTTBroker, cfg.MQTTPort, cfg.MQTTTopic)

	<-ctx.Done()
	fmt.Fprintln(stdout, "\nStopping monitor...")
	return nil
}
