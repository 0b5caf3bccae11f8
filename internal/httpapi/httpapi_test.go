package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/config"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

type fakeConn bool

func (f fakeConn) IsConnected() bool { return bool(f) }

func newTestServer(t *testing.T, db *sql.DB, mqtt ConnectionChecker, status StatusSource) *httptest.Server {
	t.Helper()

	mux := NewMux(db, mqtt, status)
	srv := NewServer(config.Config{HTTPAddr: ":0"}, mux, slog.New(slog.DiscardHandler))
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(ts.Close)
	return ts
}

func mustGetJSON[T any](t *testing.T, client *http.Client, url string, out *T) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return resp
}

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHealthz(t *testing.T) {
	online := telemetry.NewStore(1)
	online.Write(telemetry.Sample{Level: 50})

	tests := []struct {
		name          string
		db            bool
		mqtt          ConnectionChecker
		status        StatusSource
		wantMQTT      string
		wantTelemetry string
	}{
		{name: "no collaborators", wantMQTT: "disconnected", wantTelemetry: "waiting"},
		{name: "waiting", mqtt: fakeConn(true), status: telemetry.NewStore(1), wantMQTT: "connected", wantTelemetry: "waiting"},
		{name: "online broker down", mqtt: fakeConn(false), status: online, wantMQTT: "disconnected", wantTelemetry: "online"},
		{name: "with database", db: true, mqtt: fakeConn(true), status: online, wantMQTT: "connected", wantTelemetry: "online"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var db *sql.DB
			if tt.db {
				db = openMemoryDB(t)
			}
			ts := newTestServer(t, db, tt.mqtt, tt.status)

			var body map[string]string
			resp := mustGetJSON(t, ts.Client(), ts.URL+"/healthz", &body)

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d; want 200", resp.StatusCode)
			}
			if body["status"] != "ok" || body["mqtt"] != tt.wantMQTT || body["telemetry"] != tt.wantTelemetry {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestHealthz_DatabaseDown(t *testing.T) {
	db := openMemoryDB(t)
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, db, fakeConn(true), telemetry.NewStore(1))

	var body map[string]string
	resp := mustGetJSON(t, ts.Client(), ts.URL+"/healthz", &body)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d; want 500", resp.StatusCode)
	}
	if body["message"] != "failed to check database connectivity" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestHealthz_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)

	resp, err := ts.Client().Post(ts.URL+"/healthz", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d; want 405", resp.StatusCode)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	h := requestLogger(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tank-data", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "http request" || entry["path"] != "/api/tank-data" || entry["method"] != "GET" {
		t.Errorf("entry = %v", entry)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["bytes"] != float64(len("short and stout")) {
		t.Errorf("status/bytes = %v/%v", entry["status"], entry["bytes"])
	}

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/partials/current", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("htmx polling logged at info: %q", buf.String())
	}
}
