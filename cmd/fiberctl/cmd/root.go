// Package cmd implements the fiberctl commands.
//
// fiberctl drives the reconciler against an in-memory host: "trace" replays
// a YAML scenario and prints each commit, "bench" times keyed list and
// counter workloads with and without time slicing.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/go-drift/fiber/pkg/core"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

const (
	verboseKey = "verbose"
	debugKey   = "debug"
)

// New returns the fiberctl root command.
func New() *cli.Command {
	return &cli.Command{
		Name:    "fiberctl",
		Usage:   "Trace and benchmark the fiber reconciler",
		Version: Version + " (built " + BuildTime + ")",
		Commands: []*cli.Command{
			traceCommand(),
			benchCommand(),
		},
	}
}

// Execute runs fiberctl with args, which include the program name.
func Execute(ctx context.Context, args []string) error {
	return New().Run(ctx, args)
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  verboseKey,
			Usage: "Include stack traces in error output",
		},
		&cli.BoolFlag{
			Name:  debugKey,
			Usage: "Report development warnings such as duplicate keys",
			Value: true,
		},
	}
}

// configure installs the error handler selected by the common flags.
func configure(cmd *cli.Command) {
	fibererrors.SetHandler(&fibererrors.LogHandler{
		Verbose: cmd.Bool(verboseKey),
		Out:     errWriter(cmd),
	})
	core.SetDebugMode(cmd.Bool(debugKey))
}

func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.ErrWriter != nil {
		return root.ErrWriter
	}
	return os.Stderr
}
