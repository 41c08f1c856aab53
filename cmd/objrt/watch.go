package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/objrt/internal/allocator"
	"github.com/orizon-lang/objrt/internal/config"
)

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	opts := commonFlags(fs)
	interval := fs.Duration("interval", 0, "report allocator usage at this interval")
	_ = fs.Parse(args)

	if opts.configFile == "" {
		return errors.New("watch: --config is required")
	}

	logger, err := setup(opts)
	if err != nil {
		return err
	}

	w, err := config.NewWatcher(opts.configFile, func(s config.Switches) {
		logger.Debug("switches: %+v", s)
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return w.Run(ctx) })
	if *interval > 0 {
		eg.Go(func() error {
			ticker := time.NewTicker(*interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					s := config.Current()
					logger.Info("allocated %d bytes (limit %d, memory checks %t)",
						allocator.GetStats().BytesInUse, s.MemoryLimit, s.MemoryChecks)
				}
			}
		})
	}

	logger.Info("watching %s", opts.configFile)
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
