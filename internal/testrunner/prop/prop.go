// Package prop runs randomized property checks with shrinking. Container
// tests use it to replay generated workloads against a reference model.
package prop

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// Generator produces a value of type T from a PRNG and a size hint.
type Generator[T any] func(r *rand.Rand, size int) T

// Shrinker proposes smaller variants of v, most aggressive first.
type Shrinker[T any] func(v T) []T

// Property1 is a unary property predicate.
type Property1[A any] func(a A) bool

// Options control property checking.
type Options struct {
	Trials          int           // number of generated inputs
	Seed            int64         // base seed; 0 picks one from the clock
	Size            int           // size hint for generators
	Parallelism     int           // concurrent trials; <=0 means GOMAXPROCS
	MaxShrinkRounds int           // accepted shrink steps
	MaxShrinkTime   time.Duration // wall time for shrinking; 0 means unbounded
}

func (o Options) withDefaults() Options {
	if o.Trials <= 0 {
		o.Trials = 200
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Size <= 0 {
		o.Size = 30
	}
	if o.Parallelism <= 0 {
		o.Parallelism = max(runtime.GOMAXPROCS(0), 1)
	}
	if o.MaxShrinkRounds <= 0 {
		o.MaxShrinkRounds = 200
	}
	return o
}

// Result is the outcome of a property check.
type Result struct {
	PassedTrials int
	Failed       bool
	FailingInput any
	ShrunkInput  any
	Seed         int64
	Duration     time.Duration
	ShrinkRounds int
}

var errCounterexample = errors.New("prop: counterexample found")

// ForAll1 checks prop against opts.Trials generated inputs. Trials run
// concurrently and stop at the first counterexample, which is then shrunk
// one accepted candidate at a time. Trial i always sees the same input for
// a given seed.
func ForAll1[A any](gen Generator[A], shrink Shrinker[A], prop Property1[A], opts Options) Result {
	start := time.Now()
	opts = opts.withDefaults()

	var (
		passed atomic.Int64
		mu     sync.Mutex
		first  = -1
		input  A
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(opts.Parallelism)
	for i := 0; i < opts.Trials && ctx.Err() == nil; i++ {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			a := gen(trialRand(opts.Seed, i), opts.Size)
			if prop(a) {
				passed.Add(1)
				return nil
			}
			mu.Lock()
			if first < 0 || i < first {
				first, input = i, a
			}
			mu.Unlock()
			return errCounterexample
		})
	}
	_ = g.Wait()

	res := Result{PassedTrials: int(passed.Load()), Seed: opts.Seed}
	if first >= 0 {
		res.Failed = true
		res.FailingInput = input
		if shrink != nil {
			shrunk, rounds := minimize(input, shrink, prop, opts)
			res.ShrunkInput, res.ShrinkRounds = shrunk, rounds
		}
	}
	res.Duration = time.Since(start)
	return res
}

// minimize repeatedly replaces a with the first candidate that still
// falsifies prop.
func minimize[A any](a A, shrink Shrinker[A], prop Property1[A], opts Options) (A, int) {
	var deadline time.Time
	if opts.MaxShrinkTime > 0 {
		deadline = time.Now().Add(opts.MaxShrinkTime)
	}

	rounds := 0
	for rounds < opts.MaxShrinkRounds {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		next, ok := firstFailing(shrink(a), prop)
		if !ok {
			break
		}
		a = next
		rounds++
	}
	return a, rounds
}

func firstFailing[A any](candidates []A, prop Property1[A]) (A, bool) {
	for _, c := range candidates {
		if !prop(c) {
			return c, true
		}
	}
	var zero A
	return zero, false
}

// trialRand seeds the PRNG of trial i with a splitmix64 step over the base
// seed.
func trialRand(seed int64, i int) *rand.Rand {
	z := uint64(seed) + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return rand.New(rand.NewSource(int64(z)))
}

// Check runs ForAll1 and fails t with the seed and shrunk input on failure.
func Check[A any](t testing.TB, gen Generator[A], shrink Shrinker[A], prop Property1[A], opts Options) Result {
	t.Helper()
	res := ForAll1(gen, shrink, prop, opts)
	if res.Failed {
		t.Errorf("property failed after %d trials: seed=%d input=%v shrunk=%v",
			res.PassedTrials, res.Seed, res.FailingInput, res.ShrunkInput)
	}
	return res
}
