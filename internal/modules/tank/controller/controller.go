package controller

import (
	"log/slog"
	"net/http"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/service"
)

type TankController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type tankControllerImpl struct {
	service service.TankService
	logger  *slog.Logger
}

func NewTankController(service service.TankService, logger *slog.Logger) TankController {
	if logger == nil {
		logger = slog.Default()
	}
	return &tankControllerImpl{service: service, logger: logger}
}

func (c *tankControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /api/tank-data", c.handleTankData)
	mux.HandleFunc("GET /api/history", c.handleHistory)
	mux.HandleFunc("GET /partials/current", c.handleCurrentPartial)
	mux.HandleFunc("GET /partials/history", c.handleHistoryPartial)
}
