package concurrency

import "sync/atomic"

// registry maps OS thread ids to the Thread running on them. Buckets are
// singly-linked lists updated through atomic pointers, so a lookup from any
// goroutine never blocks. Removal clears the entry's thread and unlinks the
// node when no other writer got there first; OS thread ids are reused, so a
// cleared entry is simply refilled by the next thread with that id.
type registry struct {
	buckets []atomic.Pointer[registryEntry]
	mask    uint64
}

type registryEntry struct {
	id     int64
	thread atomic.Pointer[Thread]
	next   atomic.Pointer[registryEntry]
}

// threads holds every Thread currently running its body.
var threads = newRegistry(64)

func newRegistry(buckets uint64) *registry {
	n := uint64(2)
	for n < buckets {
		n <<= 1
	}
	return &registry{
		buckets: make([]atomic.Pointer[registryEntry], n),
		mask:    n - 1,
	}
}

func (r *registry) bucket(id int64) *atomic.Pointer[registryEntry] {
	h := uint64(id) * 0x9e3779b97f4a7c15
	return &r.buckets[(h>>32)&r.mask]
}

func (r *registry) load(id int64) (*Thread, bool) {
	for e := r.bucket(id).Load(); e != nil; e = e.next.Load() {
		if e.id == id {
			t := e.thread.Load()
			return t, t != nil
		}
	}
	return nil, false
}

func (r *registry) store(id int64, t *Thread) {
	head := r.bucket(id)
	for {
		first := head.Load()
		for e := first; e != nil; e = e.next.Load() {
			if e.id == id {
				e.thread.Store(t)
				return
			}
		}
		e := &registryEntry{id: id}
		e.thread.Store(t)
		e.next.Store(first)
		if head.CompareAndSwap(first, e) {
			return
		}
	}
}

// remove clears id only while it still maps to t.
func (r *registry) remove(id int64, t *Thread) bool {
	prev := r.bucket(id)
	for e := prev.Load(); e != nil; e = e.next.Load() {
		if e.id == id {
			if !e.thread.CompareAndSwap(t, nil) {
				return false
			}
			prev.CompareAndSwap(e, e.next.Load())
			return true
		}
		prev = &e.next
	}
	return false
}

func (r *registry) each(fn func(id int64, t *Thread) bool) {
	for i := range r.buckets {
		for e := r.buckets[i].Load(); e != nil; e = e.next.Load() {
			t := e.thread.Load()
			if t == nil {
				continue
			}
			if !fn(e.id, t) {
				return
			}
		}
	}
}

func (r *registry) len() int {
	n := 0
	r.each(func(int64, *Thread) bool {
		n++
		return true
	})
	return n
}
