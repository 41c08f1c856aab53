package gc

import (
	"strings"
	"testing"

	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/testrunner/assert"
)

// pair references two objects through exported fields and has no Mark instance.
type pair struct {
	object.Header
	Left, Right object.Object
}

// bag references objects through an unexported slice.
type bag struct {
	object.Header
	items []object.Object
}

var (
	pairType = object.Define[pair]("Pair")
	bagType  = object.Define[bag]("Bag")
)

func newPair(g *GC, left, right object.Object) *pair {
	p := g.Alloc(pairType).(*pair)
	p.Left, p.Right = left, right
	return p
}

func TestTableInsertFindRemove(t *testing.T) {
	var tab table
	objs := make([]object.Object, 500)
	for i := range objs {
		objs[i] = object.NewInt(int64(i))
		tab.insert(objs[i], false)
	}
	assert.Equal(t, tab.nitems, uint64(500))
	assert.True(t, float64(tab.nitems) <= float64(tab.nslots())*0.9, "load factor exceeded")

	for i, o := range objs {
		_, ok := tab.find(object.Address(o))
		assert.True(t, ok, "object", i, "not found")
	}

	for i := 0; i < len(objs); i += 2 {
		slot, ok := tab.find(object.Address(objs[i]))
		if !ok {
			t.Fatalf("object %d missing before removal", i)
		}
		tab.removeAt(slot)
	}
	assert.Equal(t, tab.nitems, uint64(250))

	for i, o := range objs {
		_, ok := tab.find(object.Address(o))
		assert.Equal(t, ok, i%2 == 1, "membership of", i)
	}

	// Every occupied slot sits within its chain: no empty slot between
	// an entry and its ideal position.
	n := tab.nslots()
	for i, e := range tab.entries {
		if e.hash == 0 {
			continue
		}
		for k := e.hash - 1; k != uint64(i); k = (k + 1) % n {
			if tab.entries[k].hash == 0 {
				t.Fatalf("slot %d is unreachable from its ideal slot %d", i, e.hash-1)
			}
		}
	}

	_, ok := tab.find(object.Address(objs[0]) + 1)
	assert.False(t, ok, "misaligned addresses are rejected")
}

func TestCollectFreesUnreachable(t *testing.T) {
	g := New()
	var kept, garbage object.Object

	g.Scoped(func(s *Scope) {
		kept = g.NewRoot(object.IntType, object.I(1))
		garbage = g.New(object.IntType, object.I(2))
	})

	g.Collect()
	assert.Live(t, kept)
	assert.Dead(t, garbage)
	assert.True(t, g.Mem(kept))
	assert.False(t, g.Mem(garbage))
	assert.Equal(t, g.Len(), 1)
}

func TestReachableThroughFields(t *testing.T) {
	g := New()
	var leafL, leafR, inBag object.Object

	g.Scoped(func(s *Scope) {
		leafL = g.New(object.StringType, object.S("left"))
		leafR = g.New(object.StringType, object.S("right"))
		inBag = g.New(object.FloatType, object.F(1.5))

		b := g.Alloc(bagType).(*bag)
		b.items = append(b.items, inBag)
		root := newPair(g, leafL, b)
		root.Right = b
		b.items = append(b.items, leafR)
		g.Root(root)
	})

	g.Collect()
	assert.Live(t, leafL)
	assert.Live(t, leafR, "reached through an unexported slice")
	assert.Live(t, inBag)
}

func TestCycleIsCollected(t *testing.T) {
	g := New()
	var a, b *pair
	g.Scoped(func(s *Scope) {
		a = newPair(g, nil, nil)
		b = newPair(g, a, nil)
		a.Left = b
	})

	g.Collect()
	assert.Dead(t, a)
	assert.Dead(t, b)
}

func TestScopesKeepAllocations(t *testing.T) {
	g := New()
	outer := g.Enter()

	inner := g.Enter()
	temp := g.New(object.IntType, object.I(1))
	escaped := inner.Escape(g.New(object.IntType, object.I(2)))
	g.Collect()
	assert.Live(t, temp, "kept by the live inner scope")

	inner.Leave()
	g.Collect()
	assert.Dead(t, temp)
	assert.Live(t, escaped, "escaped into the outer scope")

	outer.Leave()
	g.Collect()
	assert.Dead(t, escaped)
}

func TestRootSources(t *testing.T) {
	holder := &pair{}
	object.InitHeader(holder, pairType, object.AllocStatic)

	g := New(WithRoots(func(visit func(object.Object)) { visit(holder) }))
	g.Scoped(func(s *Scope) {
		holder.Left = g.New(object.IntType, object.I(9))
	})

	g.Collect()
	assert.Live(t, holder.Left)

	holder.Left = nil
	g.Collect()
	assert.Equal(t, g.Len(), 0)
}

func TestUnroot(t *testing.T) {
	g := New()
	var r object.Object
	g.Scoped(func(s *Scope) {
		r = g.NewRoot(object.IntType, object.I(3))
	})
	assert.True(t, g.IsRoot(r))

	g.Unroot(r)
	g.Collect()
	assert.Dead(t, r)
}

func TestThresholdTriggersCollection(t *testing.T) {
	g := New()
	for round := 0; round < 20; round++ {
		g.Scoped(func(s *Scope) {
			for i := 0; i < 10; i++ {
				g.New(object.IntType, object.I(int64(i)))
			}
		})
	}
	st := g.Stats()
	assert.True(t, st.Collections > 0, "no automatic collection")
	assert.True(t, st.Freed > 0, "nothing freed")
	assert.True(t, st.Live <= 200)
	assert.Equal(t, st.Tracked, uint64(200))
	assert.NotEqual(t, st.ID, "")
}

func TestExplicitDeallocUntracks(t *testing.T) {
	g := New()
	i := g.New(object.IntType, object.I(4))
	assert.Equal(t, g.Len(), 1)

	object.Del(i)
	assert.False(t, g.Mem(i))
	assert.Equal(t, g.Len(), 0)

	// A later collection must not touch the dead object kept by the scope.
	assert.NoThrow(t, g.Collect)
}

// owner deletes its sibling from its destructor.
type owner struct {
	object.Header
	sibling object.Object
}

var ownerType = object.Define[owner]("Owner",
	&object.NewOps{Del: func(self object.Object) {
		o := self.(*owner)
		if o.sibling != nil && object.HeaderOf(o.sibling).Live() {
			object.Del(o.sibling)
		}
		o.sibling = nil
	}},
	&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {}},
)

func TestDestructorDeletesSibling(t *testing.T) {
	g := New()
	var a, b object.Object
	g.Scoped(func(s *Scope) {
		b = g.Alloc(ownerType)
		a = g.Alloc(ownerType)
		a.(*owner).sibling = b
	})

	before := g.Stats().Freed
	assert.NoThrow(t, g.Collect)
	assert.Dead(t, a)
	assert.Dead(t, b)
	freed := g.Stats().Freed - before
	assert.True(t, freed >= 1 && freed <= 2, "freed", freed)
	assert.Equal(t, g.Len(), 0)
}

func TestSweepBoxesWithTrackedTargets(t *testing.T) {
	g := New()
	boxes := make([]object.Object, 0, 64)
	targets := make([]object.Object, 0, 64)
	g.Scoped(func(s *Scope) {
		for i := 0; i < 64; i++ {
			target := g.New(object.IntType, object.I(int64(i)))
			boxes = append(boxes, g.Track(object.NewBox(target)))
			targets = append(targets, target)
		}
	})

	before := g.Stats().Freed
	assert.NoThrow(t, g.Collect)
	for i := range boxes {
		assert.Dead(t, boxes[i])
		assert.Dead(t, targets[i])
	}
	freed := g.Stats().Freed - before
	assert.True(t, freed >= 64 && freed <= 128, "freed", freed)
	assert.Equal(t, g.Len(), 0)
}

func TestCurrentCollector(t *testing.T) {
	assert.ThrowsMessage(t, errors.ValueError, "No collector is running on the current thread", func() {
		object.Current(Type)
	})

	g := New()
	defer g.Finish()
	SetCurrent(func() *GC { return g })
	defer SetCurrent(func() *GC { return nil })
	assert.True(t, object.Current(Type) == object.Object(g))
}

func TestStoppedAndDisabled(t *testing.T) {
	g := New()
	g.Stop()
	i := g.New(object.IntType)
	assert.False(t, g.Mem(i), "stopped collectors do not track")
	g.Start()

	prev := config.Apply(config.Switches{MagicChecks: true})
	j := g.New(object.IntType)
	config.Apply(prev)
	assert.False(t, g.Mem(j), "the gc switch disables tracking")

	assert.False(t, g.Mem(g.Track(object.I(1))), "temporaries are never tracked")
}

func TestFinishDestroysEverything(t *testing.T) {
	g := New()
	r := g.NewRoot(object.IntType, object.I(1))
	a := g.New(object.IntType, object.I(2))

	g.Finish()
	assert.Dead(t, r)
	assert.Dead(t, a)
	assert.Equal(t, g.Len(), 0)
	assert.False(t, g.Running())
}

func TestShowDump(t *testing.T) {
	g := New()
	g.NewRoot(object.IntType, object.I(1))
	g.New(object.StringType, object.S("x"))

	dump := object.Show(g)
	assert.True(t, strings.HasPrefix(dump, "<'GC' At 0x"), dump)
	assert.Contains(t, dump, "          'Int' 0x")
	assert.Contains(t, dump, " root\n")
	assert.Contains(t, dump, "       'String' 0x")
	assert.Contains(t, dump, " auto\n")
	assert.True(t, strings.HasSuffix(dump, "+------------------->\n"))
	assert.Equal(t, strings.Count(dump, "\n| "), int(g.Stats().Slots))
}

type recorder struct{ reports []*exception.Exception }

func (r *recorder) HandleException(e *exception.Exception) bool {
	r.reports = append(r.reports, e)
	return false
}

func TestScopeMisuseAborts(t *testing.T) {
	rec := &recorder{}
	prev := exception.SetExceptionHandler(rec)
	defer exception.SetExceptionHandler(prev)

	g := New()
	outer := g.Enter()
	g.Enter()

	assert.Panics(t, outer.Leave, "out of order leave")
	assert.Panics(t, g.scopes[0].Leave, "base scope")
	if assert.Equal(t, len(rec.reports), 2) {
		assert.Contains(t, rec.reports[0].Message, "left out of order")
		assert.Contains(t, rec.reports[1].Message, "base GC scope")
	}
}
