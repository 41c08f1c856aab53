package concurrency

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/objrt/internal/object"
)

// Group runs threads together and reports the first error any of them
// throws. Once a thread fails, the group's context is cancelled and the
// remaining threads are asked to stop.
type Group struct {
	eg      *errgroup.Group
	ctx     context.Context
	stop    func() bool
	mu      sync.Mutex
	threads []*Thread
}

// NewGroup creates a group whose context derives from ctx.
func NewGroup(ctx context.Context) *Group {
	eg, gctx := errgroup.WithContext(ctx)
	g := &Group{eg: eg, ctx: gctx}
	g.stop = context.AfterFunc(gctx, g.stopAll)
	return g
}

// Context returns the group's context. It is cancelled when a thread fails
// or Wait returns.
func (g *Group) Context() context.Context { return g.ctx }

// SetLimit bounds the number of threads running at once. It must be called
// before the first Go.
func (g *Group) SetLimit(n int) { g.eg.SetLimit(n) }

// Go starts a thread running body with args. With a limit set, Go blocks
// until a slot is free.
func (g *Group) Go(body Body, args ...object.Object) *Thread {
	return g.spawn(NewThread(body), args)
}

// GoCall starts a thread calling the callable fn with args.
func (g *Group) GoCall(fn object.Object, args ...object.Object) *Thread {
	return g.spawn(object.New(ThreadType, fn).(*Thread), args)
}

func (g *Group) spawn(t *Thread, args []object.Object) *Thread {
	g.mu.Lock()
	g.threads = append(g.threads, t)
	g.mu.Unlock()

	g.eg.Go(func() error {
		if err := g.ctx.Err(); err != nil {
			return err
		}
		t.Call(args...)
		return t.Wait()
	})
	return t
}

func (g *Group) stopAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.threads {
		t.Stop()
	}
}

// Wait joins every thread and returns the first error thrown, or the
// context error when the group was cancelled before a thread started.
func (g *Group) Wait() error {
	err := g.eg.Wait()
	g.stop()
	return err
}

// Threads returns the threads started by the group.
func (g *Group) Threads() []*Thread {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Thread(nil), g.threads...)
}

// Release deletes the group's threads. Call it after Wait once their
// results have been read.
func (g *Group) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.threads {
		object.Del(t)
	}
	g.threads = nil
}
