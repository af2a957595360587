// Command dilutioncalc projects founder dilution for a funding round with
// warrants from the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:           "dilutioncalc",
	Short:         "Founder dilution calculator for equity rounds with warrants",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var args struct {
	debug bool
}

func init() {
	Cmd.PersistentFlags().BoolVar(&args.debug, "debug", false, "log at debug level")
	Cmd.PersistentPreRun = func(*cobra.Command, []string) {
		level := slog.LevelWarn
		if args.debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}
	Cmd.AddCommand(projectCmd, defaultsCmd)
}

func main() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}
