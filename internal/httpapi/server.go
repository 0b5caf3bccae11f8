package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
