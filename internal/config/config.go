package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/payload"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

// Sample log backends.
const (
	SampleLogNone   = "none"
	SampleLogCSV    = "csv"
	SampleLogSQLite = "sqlite"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
	MQTTUsername string
	MQTTPassword string

	// DeviceEUI is the monitored device. Matching is case-insensitive.
	DeviceEUI       string
	HistorySize     int
	PayloadEncoding payload.Encoding
	Calibration     payload.Calibration

	SampleLog  string
	CSVLogPath string

	DBDriver        string
	DBDSN           string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	mqttPortStr := envOr("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (allowed: 1-65535)", mqttPort)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "tankmon-" + uuid.NewString()[:8]
	}

	historySizeStr := envOr("HISTORY_SIZE", strconv.Itoa(telemetry.DefaultHistorySize))
	historySize, err := strconv.Atoi(historySizeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid HISTORY_SIZE %q: %w", historySizeStr, err)
	}
	if historySize <= 0 {
		return Config{}, fmt.Errorf("HISTORY_SIZE must be positive, got %d", historySize)
	}

	encoding, err := payload.ParseEncoding(os.Getenv("PAYLOAD_ENCODING"))
	if err != nil {
		return Config{}, err
	}

	vminStr := envOr("CALIBRATION_VMIN", strconv.FormatFloat(payload.DefaultVMin, 'f', -1, 64))
	vmin, err := strconv.ParseFloat(vminStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid CALIBRATION_VMIN %q: %w", vminStr, err)
	}
	vmaxStr := envOr("CALIBRATION_VMAX", strconv.FormatFloat(payload.DefaultVMax, 'f', -1, 64))
	vmax, err := strconv.ParseFloat(vmaxStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid CALIBRATION_VMAX %q: %w", vmaxStr, err)
	}
	calibration := payload.Calibration{VMin: vmin, VMax: vmax}
	if err := calibration.Validate(); err != nil {
		return Config{}, err
	}

	sampleLog := strings.ToLower(envOr("SAMPLE_LOG", SampleLogNone))
	switch sampleLog {
	case SampleLogNone, SampleLogCSV, SampleLogSQLite:
	default:
		return Config{}, fmt.Errorf("invalid SAMPLE_LOG %q (allowed: none, csv, sqlite)", sampleLog)
	}

	maxOpenConnsStr := envOr("DB_MAX_OPEN_CONNS", "1")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := envOr("DB_MAX_IDLE_CONNS", "1")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := envOr("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQLStr := envOr("DB_LOG_SQL", "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", logSQLStr, err)
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: level,
		HTTPAddr: envOr("HTTP_ADDR", ":5002"),

		MQTTBroker:   envOr("MQTT_BROKER", "localhost"),
		MQTTPort:     mqttPort,
		MQTTClientID: mqttClientID,
		MQTTTopic:    envOr("MQTT_TOPIC", "application/+/device/+/event/up"),
		MQTTUsername: strings.TrimSpace(os.Getenv("MQTT_USERNAME")),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),

		DeviceEUI:       strings.ToLower(envOr("DEVICE_EUI", "a84041d111896c86")),
		HistorySize:     historySize,
		PayloadEncoding: encoding,
		Calibration:     calibration,

		SampleLog:  sampleLog,
		CSVLogPath: envOr("CSV_LOG_PATH", "data/water_tank_log.csv"),

		DBDriver:        envOr("DB_DRIVER", "sqlite3"),
		DBDSN:           strings.TrimSpace(os.Getenv("DB_DSN")),
		SQLitePath:      envOr("SQLITE_PATH", "data/tankmon.db"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
	}, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
