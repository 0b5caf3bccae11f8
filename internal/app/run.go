package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/config"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/db"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/httpapi"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/migrate"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/repository"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/service"
	tankviews "github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/views"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/mqtt"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/samplelog"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttClientID", cfg.MQTTClientID,
		"mqttTopic", cfg.MQTTTopic,
		"deviceEUI", cfg.DeviceEUI,
		"historySize", cfg.HistorySize,
		"payloadEncoding", cfg.PayloadEncoding,
		"vmin", cfg.Calibration.VMin,
		"vmax", cfg.Calibration.VMax,
		"sampleLog", cfg.SampleLog,
	)

	if err := tankviews.LoadTemplates(); err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	recorder, dbConn, err := openSampleLog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	store := telemetry.NewStore(cfg.HistorySize)

	// The handler is set before Connect so that messages the broker sends
	// right after CONNACK are not dropped.
	mqttSubscriber := mqtt.NewSubscriber(cfg, logger)
	mux := httpapi.NewMux(dbConn, mqttSubscriber, store)
	tank.RegisterFeature(mux, mqttSubscriber, store, cfg, recorder, logger)

	// A short initial connect keeps startup from blocking when the broker
	// is down; paho keeps retrying in the background.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = mqttSubscriber.Connect(connectCtx)
	connectCancel()
	if err != nil {
		logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
	}

	srv := httpapi.NewServer(cfg, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		mqttSubscriber.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("mqtt disconnecting")
	mqttSubscriber.Disconnect()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// openSampleLog builds the configured sample recorder. The returned
// *sql.DB is nil unless the sqlite log is enabled.
func openSampleLog(ctx context.Context, cfg config.Config, logger *slog.Logger) (service.SampleRecorder, *sql.DB, error) {
	switch cfg.SampleLog {
	case config.SampleLogCSV:
		rec, err := samplelog.NewCSVRecorder(cfg.CSVLogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("csv sample log: %w", err)
		}
		logger.Info("csv sample log enabled", "path", rec.Path())
		return rec, nil, nil

	case config.SampleLogSQLite:
		dbConn, err := db.Open(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if _, err := migrate.Run(ctx, dbConn, logger); err != nil {
			_ = db.Close(dbConn)
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("sqlite sample log enabled", "path", cfg.SQLitePath)
		return repository.NewRepository(dbConn), dbConn, nil

	default:
		return nil, nil, nil
	}
}
