package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns the base mux with the health endpoint. db may be nil.
func NewMux(db *sql.DB, mqtt ConnectionChecker, telemetry StatusSource) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, mqtt, telemetry)
	return mux
}
