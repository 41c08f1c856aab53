package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/runtime/concurrency"
	"github.com/orizon-lang/objrt/internal/runtime/gc"
	"github.com/orizon-lang/objrt/internal/stdlib/collections"
)

func runGC(args []string) error {
	fs := flag.NewFlagSet("gc", flag.ExitOnError)
	opts := commonFlags(fs)
	objects := fs.Int("objects", 1000, "objects to allocate")
	keep := fs.Int("keep", 10, "keep every Nth object reachable")
	dump := fs.Bool("dump", false, "print the collector table")
	jsonOutput := fs.Bool("json", false, "print statistics as JSON")
	_ = fs.Parse(args)

	logger, err := setup(opts)
	if err != nil {
		return err
	}
	if *keep < 1 {
		*keep = 1
	}

	g := gc.New(gc.WithLogger(logger))
	defer g.Finish()

	return concurrency.Main().Exceptions().Try(func() {
		var kept *collections.Array
		g.Scoped(func(s *gc.Scope) {
			kept = g.NewRoot(collections.ArrayType, object.RefType).(*collections.Array)
			for i := 0; i < *objects; i++ {
				obj := g.New(object.IntType, object.I(int64(i)))
				if i%*keep == 0 {
					object.Push(kept, obj)
				}
			}
		})
		g.Collect()
		logger.Info("collected: %d of %d live objects kept by the root array", object.Len(kept), g.Len())

		if *dump {
			if _, err := g.Fprint(os.Stdout); err != nil {
				logger.Warn("dump: %v", err)
			}
		}

		stats := g.Stats()
		if *jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(stats); err != nil {
				logger.Warn("encode: %v", err)
			}
			return
		}
		fmt.Printf("collector %s\n", stats.ID)
		fmt.Printf("  live:        %d of %d allocated\n", stats.Live, stats.Tracked)
		fmt.Printf("  freed:       %d in %d collections\n", stats.Freed, stats.Collections)
		fmt.Printf("  slots:       %d (threshold %d)\n", stats.Slots, stats.Threshold)
	})
}
