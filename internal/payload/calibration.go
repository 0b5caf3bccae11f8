package payload

import (
	"fmt"
	"math"
)

const (
	DefaultVMin = 0.5
	DefaultVMax = 1.44
)

// Calibration is the linear sensor-voltage to percent mapping applied by
// the sensor firmware: level = (v - VMin) / (VMax - VMin) * 100.
type Calibration struct {
	VMin float64
	VMax float64
}

func DefaultCalibration() Calibration {
	return Calibration{VMin: DefaultVMin, VMax: DefaultVMax}
}

func (c Calibration) Validate() error {
	if math.IsNaN(c.VMin) || math.IsInf(c.VMin, 0) || math.IsNaN(c.VMax) || math.IsInf(c.VMax, 0) {
		return fmt.Errorf("calibration bounds must be finite (vmin=%v, vmax=%v)", c.VMin, c.VMax)
	}
	if c.VMax <= c.VMin {
		return fmt.Errorf("calibration vmax (%v) must be greater than vmin (%v)", c.VMax, c.VMin)
	}
	return nil
}

// Voltage recovers the sensor voltage behind a level reading.
func (c Calibration) Voltage(level float64) float64 {
	return (level/100.0)*(c.VMax-c.VMin) + c.VMin
}
