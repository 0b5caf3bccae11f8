package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/utils"
)

// ConnectionChecker reports broker connectivity.
type ConnectionChecker interface {
	IsConnected() bool
}

// StatusSource reports whether telemetry has arrived yet.
type StatusSource interface {
	Status() telemetry.Status
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db        *sql.DB // nil unless the sqlite sample log is enabled
	mqtt      ConnectionChecker
	telemetry StatusSource
}

func NewHealthchecker(db *sql.DB, mqtt ConnectionChecker, telemetry StatusSource) healthchecker {
	return &healthcheckerImpl{db: db, mqtt: mqtt, telemetry: telemetry}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		var ok int
		if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
			slog.Error("failed to check database connectivity", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
			return
		}
	}

	mqttState := "disconnected"
	if h.mqtt != nil && h.mqtt.IsConnected() {
		mqttState = "connected"
	}
	telemetryState := telemetry.StatusWaiting
	if h.telemetry != nil {
		telemetryState = h.telemetry.Status()
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"mqtt":      mqttState,
		"telemetry": string(telemetryState),
	})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, mqtt ConnectionChecker, telemetry StatusSource) {
	healthchecker := NewHealthchecker(db, mqtt, telemetry)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
