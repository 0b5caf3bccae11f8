// tankmonctl is the operator tool for the water tank monitor: payload
// decoding, a live console monitor, and sample log maintenance.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var version = "dev"

type command struct {
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = map[string]command{
	"decode":  {summary: "decode uplink payloads into level and voltage", run: runDecode},
	"encode":  {summary: "encode tank levels as base64 and hex payloads", run: runEncode},
	"watch":   {summary: "live console monitor of tank uplinks", run: runWatch},
	"migrate": {summary: "apply the sqlite sample log schema", run: runMigrate},
	"export":  {summary: "write the sqlite sample log as CSV to stdout", run: runExport},
}

var commandOrder = []string{"decode", "encode", "watch", "migrate", "export"}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(ctx, args[1:], stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tankmonctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration defaults come from the environment (and .env), as for the server.")
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("tankmonctl "+name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	return flagSet
}
