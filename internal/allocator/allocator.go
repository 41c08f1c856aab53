// Package allocator accounts for object memory handed out by the runtime and
// enforces the configured memory limit.
package allocator

import (
	"fmt"
	"sync/atomic"
)

// AllocatorStats provides allocation statistics.
type AllocatorStats struct {
	TotalAllocated    uint64
	TotalFreed        uint64
	ActiveAllocations int64
	PeakAllocations   int64
	AllocationCount   uint64
	FreeCount         uint64
	BytesInUse        int64
	PeakBytesInUse    int64
}

// LimitError reports an allocation refused by the memory limit.
type LimitError struct {
	Requested uintptr
	InUse     int64
	Limit     int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("allocation of %d bytes exceeds memory limit (%d of %d bytes in use)", e.Requested, e.InUse, e.Limit)
}

// Accountant tracks live object memory. It is safe for concurrent use.
type Accountant struct {
	totalAlloc atomic.Uint64
	totalFree  atomic.Uint64
	allocCount atomic.Uint64
	freeCount  atomic.Uint64
	active     atomic.Int64
	peakActive atomic.Int64
	bytesInUse atomic.Int64
	peakInUse  atomic.Int64
}

// Reserve records an allocation of size bytes. When limit is positive and the
// allocation would exceed it, nothing is recorded and a *LimitError is returned.
func (a *Accountant) Reserve(size uintptr, limit int64) error {
	n := int64(size)
	inUse := a.bytesInUse.Add(n)
	if limit > 0 && inUse > limit {
		a.bytesInUse.Add(-n)
		return &LimitError{Requested: size, InUse: inUse - n, Limit: limit}
	}

	a.totalAlloc.Add(uint64(size))
	a.allocCount.Add(1)
	active := a.active.Add(1)
	raiseTo(&a.peakActive, active)
	raiseTo(&a.peakInUse, inUse)
	return nil
}

// Release records that size bytes were freed.
func (a *Accountant) Release(size uintptr) {
	a.bytesInUse.Add(-int64(size))
	a.totalFree.Add(uint64(size))
	a.freeCount.Add(1)
	a.active.Add(-1)
}

// Stats returns a snapshot of the counters.
func (a *Accountant) Stats() AllocatorStats {
	return AllocatorStats{
		TotalAllocated:    a.totalAlloc.Load(),
		TotalFreed:        a.totalFree.Load(),
		ActiveAllocations: a.active.Load(),
		PeakAllocations:   a.peakActive.Load(),
		AllocationCount:   a.allocCount.Load(),
		FreeCount:         a.freeCount.Load(),
		BytesInUse:        a.bytesInUse.Load(),
		PeakBytesInUse:    a.peakInUse.Load(),
	}
}

func raiseTo(peak *atomic.Int64, v int64) {
	for {
		cur := peak.Load()
		if v <= cur || peak.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Global is the accountant used by object allocation.
var Global = &Accountant{}

// GetStats returns the global allocation statistics.
func GetStats() AllocatorStats {
	return Global.Stats()
}
