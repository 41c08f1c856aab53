package gc

import (
	"unsafe"

	"github.com/orizon-lang/objrt/internal/allocator"
	"github.com/orizon-lang/objrt/internal/object"
)

const ptrAlign = unsafe.Alignof(uintptr(0))

// entry is one slot of the pointer table. hash holds the ideal slot plus one,
// so zero marks an empty slot.
type entry struct {
	obj    object.Object
	addr   uintptr
	hash   uint64
	root   bool
	marked bool
}

// table is a Robin-Hood open-addressing set keyed by object address.
type table struct {
	entries []entry
	nitems  uint64
	minptr  uintptr
	maxptr  uintptr
}

func (t *table) nslots() uint64 { return uint64(len(t.entries)) }

func hashAddr(addr uintptr) uint64 { return uint64(addr >> 3) }

func (t *table) displacement(i, h uint64) uint64 {
	n := t.nslots()
	return (i + n - (h - 1)) % n
}

// find returns the slot holding addr.
func (t *table) find(addr uintptr) (uint64, bool) {
	n := t.nslots()
	if n == 0 || t.nitems == 0 {
		return 0, false
	}
	if addr < t.minptr || addr > t.maxptr || addr%ptrAlign != 0 {
		return 0, false
	}

	i := hashAddr(addr) % n
	j := uint64(0)
	for {
		h := t.entries[i].hash
		if h == 0 {
			return 0, false
		}
		if t.entries[i].addr == addr {
			return i, true
		}
		if j > t.displacement(i, h) {
			return 0, false
		}
		i = (i + 1) % n
		j++
	}
}

// insert adds a new entry, growing the table first when the load factor
// would be exceeded. The address must not already be present.
func (t *table) insert(obj object.Object, root bool) {
	if float64(t.nitems+1) > float64(t.nslots())*allocator.LoadFactor {
		t.resize(allocator.IdealSize(t.nitems + 1))
	}

	addr := object.Address(obj)
	if t.nitems == 0 || addr < t.minptr {
		t.minptr = addr
	}
	if t.nitems == 0 || addr > t.maxptr {
		t.maxptr = addr
	}
	t.place(entry{obj: obj, addr: addr, root: root})
	t.nitems++
}

func (t *table) place(e entry) {
	n := t.nslots()
	i := hashAddr(e.addr) % n
	e.hash = i + 1
	j := uint64(0)
	for {
		h := t.entries[i].hash
		if h == 0 {
			t.entries[i] = e
			return
		}
		if p := t.displacement(i, h); j >= p {
			t.entries[i], e = e, t.entries[i]
			j = p
		}
		i = (i + 1) % n
		j++
	}
}

// removeAt empties slot i and shifts the following displaced entries back.
func (t *table) removeAt(i uint64) {
	n := t.nslots()
	t.entries[i] = entry{}
	for {
		next := (i + 1) % n
		h := t.entries[next].hash
		if h == 0 || t.displacement(next, h) == 0 {
			break
		}
		t.entries[i] = t.entries[next]
		t.entries[next] = entry{}
		i = next
	}
	t.nitems--
}

func (t *table) resize(size uint64) {
	old := t.entries
	t.entries = make([]entry, size)
	for _, e := range old {
		if e.hash != 0 {
			t.place(e)
		}
	}
}

// shrink resizes the table down to the ideal size for its item count.
func (t *table) shrink() {
	if size := allocator.IdealSize(t.nitems); size < t.nslots() {
		t.resize(size)
	}
}

func (t *table) reset() {
	t.entries = nil
	t.nitems = 0
	t.minptr, t.maxptr = 0, 0
}
