// Package uplink defines the ChirpStack uplink event published on
// application/{application_id}/device/{dev_eui}/event/up.
package uplink

import "strings"

// Uplink is the subset of a ChirpStack uplink event the monitor reads.
// v4 puts the device under deviceInfo; v3 used a top-level devEUI.
type Uplink struct {
	DeviceInfo   DeviceInfo `json:"deviceInfo"`
	LegacyDevEUI string     `json:"devEUI,omitempty"`
	FCnt         *uint32    `json:"fCnt,omitempty"`
	FPort        *uint8     `json:"fPort,omitempty"`
	Data         string     `json:"data"`
	RxInfo       []RxInfo   `json:"rxInfo,omitempty"`
}

type DeviceInfo struct {
	DevEUI     string `json:"devEui"`
	DeviceName string `json:"deviceName,omitempty"`
}

// RxInfo is the per-gateway reception metadata.
type RxInfo struct {
	GatewayID string   `json:"gatewayId,omitempty"`
	RSSI      *int     `json:"rssi,omitempty"`
	SNR       *float64 `json:"snr,omitempty"`
}

// DevEUI returns the device EUI. A top-level devEUI wins over
// deviceInfo.devEui when an envelope carries both.
func (u Uplink) DevEUI() string {
	if eui := strings.TrimSpace(u.LegacyDevEUI); eui != "" {
		return eui
	}
	return strings.TrimSpace(u.DeviceInfo.DevEUI)
}

// LinkQuality returns RSSI and SNR from the first gateway that received
// the frame, zero when missing.
func (u Uplink) LinkQuality() (rssi int, snr float64) {
	if len(u.RxInfo) == 0 {
		return 0, 0
	}
	rx := u.RxInfo[0]
	if rx.RSSI != nil {
		rssi = *rx.RSSI
	}
	if rx.SNR != nil {
		snr = *rx.SNR
	}
	return rssi, snr
}

// FrameCount returns fCnt, zero when missing.
func (u Uplink) FrameCount() uint32 {
	if u.FCnt == nil {
		return 0
	}
	return *u.FCnt
}
