package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/payload"
)

func runEncode(_ context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := newFlagSet("encode", stderr)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		return fmt.Errorf("encode: at least one level is required")
	}

	for _, arg := range flagSet.Args() {
		level, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("encode: invalid level %q: %w", arg, err)
		}
		b := payload.Encode(level)
		fmt.Fprintf(stdout, "%s\tbase64=%s\thex=%s\n",
			arg,
			base64.StdEncoding.EncodeToString(b),
			hex.EncodeToString(b),
		)
	}
	return nil
}
