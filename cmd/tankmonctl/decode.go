package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/types"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/payload"
)

func runDecode(_ context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := newFlagSet("decode", stderr)
	encodingFlag := flagSet.StringP("encoding", "e", string(payload.EncodingAuto), "payload encoding: base64, hex or auto")
	vmin := flagSet.Float64("vmin", payload.DefaultVMin, "calibration voltage at 0%")
	vmax := flagSet.Float64("vmax", payload.DefaultVMax, "calibration voltage at 100%")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		return fmt.Errorf("decode: at least one payload is required")
	}

	enc, err := payload.ParseEncoding(*encodingFlag)
	if err != nil {
		return err
	}
	calibration := payload.Calibration{VMin: *vmin, VMax: *vmax}
	if err := calibration.Validate(); err != nil {
		return err
	}

	failed := 0
	for _, raw := range flagSet.Args() {
		level, err := payload.Decode(raw, enc)
		if err != nil {
			fmt.Fprintf(stdout, "%s\terror: %v\n", raw, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%s\tlevel=%s%%\tvoltage=%s V\tband=%s\n",
			raw,
			strconv.FormatFloat(level, 'f', 2, 64),
			strconv.FormatFloat(calibration.Voltage(level), 'f', 4, 64),
			types.LevelBand(level),
		)
	}
	if failed > 0 {
		return fmt.Errorf("decode: %d of %d payloads failed", failed, flagSet.NArg())
	}
	return nil
}
