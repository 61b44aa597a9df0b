package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rekogexport/internal/logging"
	"rekogexport/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var level string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the export log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{RunID: strings.TrimSpace(runID)}
			if level != "" {
				if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid --level %q: %w", level, err)
				}
			}

			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()
			emit := func(result logs.TailResult) {
				for _, line := range result.Lines {
					if raw {
						fmt.Fprintln(out, line)
						continue
					}
					if entry, ok := logs.ParseEntry(line); ok {
						fmt.Fprintln(out, logs.Format(entry))
					} else {
						fmt.Fprintln(out, line)
					}
				}
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			emit(result)
			if !follow {
				if len(result.Lines) == 0 && filter == (logs.Filter{}) {
					fmt.Fprintf(cmd.ErrOrStderr(), "No log output in %s\n", path)
				}
				return nil
			}

			offset := result.Offset
			for {
				result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{
					Offset: offset,
					Follow: true,
					Wait:   5 * time.Second,
					Filter: filter,
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				emit(result)
				offset = result.Offset
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines for this run id (or prefix)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn or error")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unformatted")
	return cmd
}
