package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistry_Basic(t *testing.T) {
	r := newRegistry(8)
	a, b := &Thread{}, &Thread{}

	if _, ok := r.load(7); ok {
		t.Fatal("unexpected present")
	}

	r.store(7, a)
	if got, ok := r.load(7); !ok || got != a {
		t.Fatalf("got %p %v", got, ok)
	}

	if r.remove(7, b) {
		t.Fatal("removed an entry owned by another thread")
	}

	// ids are reused by the OS
	r.store(7, b)
	if got, _ := r.load(7); got != b {
		t.Fatalf("reused id maps to %p", got)
	}

	if !r.remove(7, b) {
		t.Fatal("remove failed")
	}
	if _, ok := r.load(7); ok {
		t.Fatal("still present after remove")
	}
	if r.len() != 0 {
		t.Fatalf("len = %d", r.len())
	}
}

func TestRegistry_CollidingIDs(t *testing.T) {
	r := newRegistry(2)
	ts := make([]*Thread, 32)
	for i := range ts {
		ts[i] = &Thread{}
		r.store(int64(i), ts[i])
	}
	for i := range ts {
		if got, ok := r.load(int64(i)); !ok || got != ts[i] {
			t.Fatalf("id %d: got %p %v", i, got, ok)
		}
	}
	for i := 0; i < len(ts); i += 2 {
		r.remove(int64(i), ts[i])
	}
	if r.len() != len(ts)/2 {
		t.Fatalf("len = %d, want %d", r.len(), len(ts)/2)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := newRegistry(16)
	ids := 500
	writers := 4
	readers := 4

	var seen uint64

	wgW := sync.WaitGroup{}
	wgW.Add(writers)

	for w := 0; w < writers; w++ {
		go func(base int) {
			defer wgW.Done()

			th := &Thread{}
			for i := 0; i < ids; i++ {
				id := int64(base*ids + i)
				r.store(id, th)
				if i%3 == 0 {
					r.remove(id, th)
				}
			}
		}(w)
	}

	done := make(chan struct{})
	wgR := sync.WaitGroup{}
	wgR.Add(readers)

	for i := 0; i < readers; i++ {
		go func() {
			defer wgR.Done()

			for {
				select {
				case <-done:
					return
				default:
				}
				r.each(func(int64, *Thread) bool {
					atomic.AddUint64(&seen, 1)
					return true
				})
			}
		}()
	}

	wgW.Wait()
	close(done)
	wgR.Wait()

	want := writers * (ids - (ids+2)/3)
	if got := r.len(); got != want {
		t.Fatalf("len = %d, want %d", got, want)
	}
	if seen == 0 {
		t.Fatal("no reads observed")
	}
}
