package main

import (
	"context"
	"fmt"
	"io"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/config"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/db"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/logging"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/migrate"
)

func runMigrate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	flagSet := newFlagSet("migrate", stderr)
	sqlitePath := flagSet.String("sqlite-path", cfg.SQLitePath, "sample log database file")
	status := flagSet.Bool("status", false, "list migrations without applying them")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	cfg.SQLitePath = *sqlitePath

	logger := logging.NewWithWriter(stderr, cfg, version, "tankmonctl")
	conn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()

	if !*status {
		n, err := migrate.Run(ctx, conn, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "applied %d migration(s)\n", n)
	}

	migrations, err := migrate.Status(ctx, conn)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		state := "pending"
		if m.Applied {
			state = "applied"
		}
		fmt.Fprintf(stdout, "%s_%s\t%s\n", m.Version, m.Name, state)
	}
	return nil
}
