package tank

import (
	"log/slog"
	"net/http"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/config"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/controller"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/service"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/mqtt"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

// RegisterFeature wires the tank monitor: uplinks from subscriber flow
// through the ingester into store, and the HTTP routes read from it.
// recorder may be nil.
func RegisterFeature(mux *http.ServeMux, subscriber mqtt.MQTTSubscriber, store *telemetry.Store, cfg config.Config, recorder service.SampleRecorder, logger *slog.Logger) *service.Ingester {
	ingester := service.NewIngester(store, service.IngestConfig{
		DeviceEUI:   cfg.DeviceEUI,
		Encoding:    cfg.PayloadEncoding,
		Calibration: cfg.Calibration,
	}, recorder, logger)
	ingester.Register(subscriber)

	tankController := controller.NewTankController(service.NewQuery(store), logger)
	tankController.RegisterRoutes(mux)
	return ingester
}
