package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/types"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/payload"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/uplink"
)

const (
	barCells   = 40
	ruleWidth  = 60
	timeLayout = "2006-01-02 15:04:05"
)

var bandColors = map[string]lipgloss.Color{
	types.BandGood:     lipgloss.Color("10"),
	types.BandMedium:   lipgloss.Color("11"),
	types.BandLow:      lipgloss.Color("208"),
	types.BandCritical: lipgloss.Color("9"),
}

// monitor prints one block per uplink in the style of a serial console.
type monitor struct {
	out         io.Writer
	renderer    *lipgloss.Renderer
	encoding    payload.Encoding
	calibration payload.Calibration
}

func newMonitor(out io.Writer, enc payload.Encoding, calibration payload.Calibration) *monitor {
	return &monitor{
		out:         out,
		renderer:    lipgloss.NewRenderer(out),
		encoding:    enc,
		calibration: calibration,
	}
}

// levelBar fills one cell per 2.5%, truncating.
func levelBar(level float64) string {
	filled := int(level / 100 * barCells)
	filled = max(0, min(barCells, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
}

// render prints the uplink and returns the decoded level, or the decode
// error.
func (m *monitor) render(up uplink.Uplink, at time.Time) (float64, error) {
	rule := strings.Repeat("=", ruleWidth)
	label := m.renderer.NewStyle().Bold(true)
	dim := m.renderer.NewStyle().Faint(true)

	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%s %s\n", label.Render("Uplink received:"), at.Format(timeLayout))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Device EUI:    %s\n", up.DevEUI())
	fmt.Fprintf(&b, "Frame Counter: %d\n", up.FrameCount())
	port := "N/A"
	if up.FPort != nil {
		port = strconv.Itoa(int(*up.FPort))
	}
	fmt.Fprintf(&b, "Port:          %s\n", port)
	fmt.Fprintf(&b, "Raw Data:      %s\n", dim.Render(up.Data))

	level, err := payload.Decode(up.Data, m.encoding)
	if err != nil {
		errStyle := m.renderer.NewStyle().Foreground(bandColors[types.BandCritical]).Bold(true)
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, errStyle.Render("ERROR: Could not decode tank level"))
		fmt.Fprintf(&b, "  %v\n", err)
		fmt.Fprintln(&b, rule)
		_, _ = io.WriteString(m.out, b.String())
		return 0, err
	}

	band := types.LevelBand(level)
	bandStyle := m.renderer.NewStyle().Foreground(bandColors[band]).Bold(true)

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "%s %s%%\n", label.Render("TANK LEVEL:"), strconv.FormatFloat(level, 'f', 1, 64))
	fmt.Fprintf(&b, "[%s]\n", bandStyle.Render(levelBar(level)))
	fmt.Fprintf(&b, "Voltage:       %s V\n", strconv.FormatFloat(m.calibration.Voltage(level), 'f', 4, 64))
	fmt.Fprintf(&b, "Status:        %s\n", bandStyle.Render(strings.ToUpper(band)))

	rssi, snr := up.LinkQuality()
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "RSSI: %d dBm | SNR: %s dB\n", rssi, strconv.FormatFloat(snr, 'f', -1, 64))
	fmt.Fprintln(&b, rule)

	_, _ = io.WriteString(m.out, b.String())
	return level, nil
}
