package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/runtime/concurrency"
	"github.com/orizon-lang/objrt/internal/runtime/gc"
	"github.com/orizon-lang/objrt/internal/stdlib/collections"
)

func runThreads(args []string) error {
	fs := flag.NewFlagSet("threads", flag.ExitOnError)
	opts := commonFlags(fs)
	n := fs.Int("threads", 4, "worker threads to start")
	iterations := fs.Int("iterations", 1000, "increments per thread")
	limit := fs.Int("limit", 0, "maximum threads running at once")
	_ = fs.Parse(args)

	logger, err := setup(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	group := concurrency.NewGroup(ctx)
	if *limit > 0 {
		group.SetLimit(*limit)
	}
	defer group.Release()

	mu := concurrency.NewMutex()
	defer object.Del(mu)
	total := object.NewInt(0)
	defer object.Del(total)

	for i := 0; i < *n; i++ {
		group.Go(worker, mu, total, object.I(int64(*iterations)))
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("threads: %w", err)
	}

	for _, t := range group.Threads() {
		logger.Info("thread %s ran %s collections", t.Label(), object.Show(t.Result()))
		object.Del(t.Result())
	}
	fmt.Printf("total %d (want %d)\n", total.Val, *n**iterations)
	return nil
}

// worker increments the shared total under the mutex while churning
// through short-lived objects in its own collector. The table of recent
// values is reachable only through thread-local storage.
func worker(self *concurrency.Thread, args []object.Object) object.Object {
	mu, total, iterations := args[0], args[1].(*object.Int), object.CInt(args[2])

	g := self.GC()
	recent := g.New(collections.TableType, object.IntType, object.IntType).(*collections.Table)
	self.Set(object.S("recent"), recent)
	defer self.Rem(object.S("recent"))

	for i := int64(0); i < iterations; i++ {
		self.Poll()
		g.Scoped(func(*gc.Scope) {
			v := g.New(object.IntType, object.I(i))
			recent.Set(object.I(i%64), v)
		})
		object.With(mu, func() { total.Val++ })
	}
	g.Collect()
	return object.NewInt(int64(g.Stats().Collections))
}
