package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/riftss/riftss/internal/compile"
)

// newWatchCmd rebuilds an input file whenever it, or any file it included
// on the previous successful run, changes on disk; until a build succeeds
// only the entry file is watched. Polling rather than an OS notify API
// keeps this dependency-free beyond what the rest of the CLI already
// imports. Builds run one at a time on the polling loop, each registered
// in a compile.Registry; a change that lands mid-compile does not cancel
// the running build and is picked up by the next poll.
func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Recompile a stylesheet whenever it or its imports change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 300*time.Millisecond, "polling interval")
	return cmd
}

func runWatch(entryFile string, interval time.Duration) error {
	log, err := newProcessLogger(rootFlags.verbose, rootFlags.logFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	reg := compile.NewRegistry()
	watched := []string{entryFile}
	var lastMod map[string]time.Time

	var inFlight string
	build := func() {
		if inFlight != "" {
			reg.Cancel(inFlight)
		}
		id, cancel := reg.Begin()
		inFlight = id
		defer func() { reg.End(id); inFlight = "" }()

		opts, err := resolveOptions(entryFile)
		if err != nil {
			log.Error("config error", zap.Error(err))
			return
		}
		res := compile.Compile(compile.Input{Path: entryFile}, opts, osFS{}, nil, nil, cancel)
		printDiagnostics(os.Stderr, res)
		if res.Status != compile.StatusOK {
			log.Warn("build failed", zap.String("file", entryFile))
			return
		}
		watched = res.IncludedFiles
		log.Info("build succeeded", zap.String("file", entryFile), zap.Int("included", len(watched)))

		if opts.OutFile != "" {
			if err := os.WriteFile(opts.OutFile, []byte(res.CSS), 0o644); err != nil {
				log.Error("write failed", zap.Error(err))
			}
		} else {
			fmt.Print(res.CSS)
		}
	}

	build()
	lastMod = snapshotModTimes(watched)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-sigCh:
			return nil
		case <-ticker.C:
			cur := snapshotModTimes(watched)
			if modTimesChanged(lastMod, cur) {
				build()
				lastMod = snapshotModTimes(watched)
			}
		}
	}
}

func snapshotModTimes(paths []string) map[string]time.Time {
	out := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			out[p] = info.ModTime()
		}
	}
	return out
}

func modTimesChanged(prev, cur map[string]time.Time) bool {
	if len(prev) != len(cur) {
		return true
	}
	for p, t := range cur {
		if prevT, ok := prev[p]; !ok || !prevT.Equal(t) {
			return true
		}
	}
	return false
}
