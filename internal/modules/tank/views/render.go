package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/types"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/telemetry"
)

// RefreshSeconds is the HTMX polling interval of the dashboard partials.
const RefreshSeconds = 5

var dashboardTmpl *template.Template

var funcs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// CurrentData is the view model of the current reading card.
type CurrentData struct {
	Waiting       bool
	Level         float64
	Voltage       float64
	RSSI          int
	SNR           float64
	FrameCount    uint32
	Timestamp     time.Time
	Band          string
	FillPct       float64 // Level clamped to 0..100 for the gauge
	SamplesTotal  uint64
	HistoryLength int
	Capacity      int
}

// HistoryRow is one line of the history table.
type HistoryRow struct {
	Timestamp  time.Time
	Level      float64
	Voltage    float64
	RSSI       int
	SNR        float64
	FrameCount uint32
	Band       string
}

type HistoryData struct {
	Rows     []HistoryRow // newest first
	Shown    int
	Retained int
}

type DashboardData struct {
	Current        CurrentData
	History        HistoryData
	RefreshSeconds int
}

func NewCurrentData(c types.Current) CurrentData {
	d := CurrentData{
		Waiting:       c.Timestamp == nil,
		Level:         c.Level,
		Voltage:       c.Voltage,
		RSSI:          c.RSSI,
		SNR:           c.SNR,
		FrameCount:    c.FrameCount,
		Band:          c.LevelBand,
		FillPct:       min(max(c.Level, 0), 100),
		SamplesTotal:  c.SamplesTotal,
		HistoryLength: c.HistoryLength,
		Capacity:      c.Capacity,
	}
	if c.Timestamp != nil {
		d.Timestamp = *c.Timestamp
	}
	return d
}

// NewHistoryData reverses samples (oldest first) into table order.
func NewHistoryData(samples []telemetry.Sample, retained int) HistoryData {
	rows := make([]HistoryRow, 0, len(samples))
	for i := len(samples) - 1; i >= 0; i-- {
		s := samples[i]
		rows = append(rows, HistoryRow{
			Timestamp:  s.Timestamp,
			Level:      s.Level,
			Voltage:    s.Voltage,
			RSSI:       s.RSSI,
			SNR:        s.SNR,
			FrameCount: s.FrameCount,
			Band:       types.LevelBand(s.Level),
		})
	}
	return HistoryData{Rows: rows, Shown: len(rows), Retained: retained}
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderCurrentPartial executes only the current reading partial into w.
// Use for HTMX fragment refresh.
func RenderCurrentPartial(w io.Writer, data *CurrentData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/current", data)
}

func RenderHistoryPartial(w io.Writer, data *HistoryData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/history", data)
}
