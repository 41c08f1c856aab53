package collections

import (
	"iter"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

type listNode struct {
	prev, next *listNode
	item       object.Object
}

// List is a doubly linked sequence of values of one element type. Unlike
// Array, item pointers stay valid while other items are inserted or removed.
type List struct {
	object.Header
	elem       *object.Type
	head, tail *listNode
	nitems     int
	nodes      map[uintptr]*listNode
}

// ListType is the runtime type of List.
var ListType *object.Type

func init() {
	ListType = object.Define[List]("List",
		&object.DocOps{
			Name:  "List",
			Brief: "Linked List",
			Description: "The List type is a doubly linked list of objects of a single type. " +
				"Items keep their address for as long as they are in the list. Positional " +
				"access walks from whichever end is nearer.",
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {
				l := self.(*List)
				t, rest := typeArg(args, "List")
				l.clear()
				l.elem = t
				for _, item := range rest {
					l.Push(item)
				}
			},
			Del: func(self object.Object) { self.(*List).clear() },
		},
		&object.AssignOps{Assign: func(self, obj object.Object) { self.(*List).assign(obj) }},
		&object.CmpOps{Cmp: func(self, obj object.Object) int {
			return cmpSeq(self.(*List).all(), object.All(obj))
		}},
		&object.HashOps{Hash: func(self object.Object) uint64 { return hashSeq(self.(*List).all()) }},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			for item := range self.(*List).all() {
				visit(item)
			}
		}},
		&object.LenOps{Len: func(self object.Object) int { return self.(*List).nitems }},
		&object.IterOps{
			Init: func(self object.Object) object.Object { return itemOf(self.(*List).head) },
			Next: func(self, cur object.Object) object.Object {
				if n := self.(*List).node(cur); n != nil {
					return itemOf(n.next)
				}
				return object.Terminal
			},
			Last: func(self object.Object) object.Object { return itemOf(self.(*List).tail) },
			Prev: func(self, cur object.Object) object.Object {
				if n := self.(*List).node(cur); n != nil {
					return itemOf(n.prev)
				}
				return object.Terminal
			},
			Type: func(self object.Object) *object.Type { return self.(*List).Elem() },
		},
		&object.GetOps{
			Get:     func(self, k object.Object) object.Object { return self.(*List).Get(key(k)) },
			Set:     func(self, k, v object.Object) { self.(*List).Set(key(k), v) },
			Mem:     func(self, v object.Object) bool { return self.(*List).Mem(v) },
			Rem:     func(self, v object.Object) { self.(*List).Rem(v) },
			KeyType: func(self object.Object) *object.Type { return object.IntType },
			ValType: func(self object.Object) *object.Type { return self.(*List).Elem() },
		},
		&object.PushOps{
			Push:   func(self, v object.Object) { self.(*List).Push(v) },
			Pop:    func(self object.Object) { self.(*List).Pop() },
			PushAt: func(self, v, k object.Object) { self.(*List).PushAt(v, key(k)) },
			PopAt:  func(self, k object.Object) { self.(*List).PopAt(key(k)) },
		},
		&object.ConcatOps{
			Concat: func(self, obj object.Object) { self.(*List).Concat(obj) },
			Append: func(self, v object.Object) { self.(*List).Push(v) },
		},
		&object.ResizeOps{Resize: func(self object.Object, n int) { self.(*List).Resize(n) }},
		&object.SortOps{SortBy: func(self object.Object, less func(a, b object.Object) bool) {
			self.(*List).SortBy(less)
		}},
		&object.ReverseOps{Reverse: func(self object.Object) { self.(*List).Reverse() }},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showSeq(b, "[", "]", self.(*List).all())
		}},
	)
}

// NewList allocates a heap List of elem holding copies of items.
func NewList(elem *object.Type, items ...object.Object) *List {
	args := append([]object.Object{elem}, items...)
	return object.New(ListType, args...).(*List)
}

func itemOf(n *listNode) object.Object {
	if n == nil {
		return object.Terminal
	}
	return n.item
}

// Elem returns the element type.
func (l *List) Elem() *object.Type {
	if l.elem == nil {
		return object.RefType
	}
	return l.elem
}

// Len returns the number of items.
func (l *List) Len() int { return l.nitems }

func (l *List) node(item object.Object) *listNode {
	if item == nil {
		return nil
	}
	return l.nodes[object.Address(item)]
}

func (l *List) all() iter.Seq[object.Object] {
	return func(yield func(object.Object) bool) {
		for n := l.head; n != nil; n = n.next {
			if !yield(n.item) {
				return
			}
		}
	}
}

// newNode allocates an unlinked node holding a copy of v.
func (l *List) newNode(v object.Object) *listNode {
	item := object.AllocAs(l.Elem(), object.AllocEmbedded)
	object.Assign(item, v)
	n := &listNode{item: item}
	if l.nodes == nil {
		l.nodes = make(map[uintptr]*listNode)
	}
	l.nodes[object.Address(item)] = n
	return n
}

// linkBefore links n before at, or at the tail when at is nil.
func (l *List) linkBefore(n, at *listNode) {
	if at == nil {
		n.prev = l.tail
		if l.tail != nil {
			l.tail.next = n
		} else {
			l.head = n
		}
		l.tail = n
	} else {
		n.prev, n.next = at.prev, at
		if at.prev != nil {
			at.prev.next = n
		} else {
			l.head = n
		}
		at.prev = n
	}
	l.nitems++
}

func (l *List) unlink(n *listNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.nitems--
	delete(l.nodes, object.Address(n.item))
	object.Destruct(n.item)
}

// at walks to position i from the nearer end.
func (l *List) at(i int) *listNode {
	if i < l.nitems/2 {
		n := l.head
		for ; i > 0; i-- {
			n = n.next
		}
		return n
	}
	n := l.tail
	for j := l.nitems - 1; j > i; j-- {
		n = n.prev
	}
	return n
}

func (l *List) clear() {
	for l.tail != nil {
		l.unlink(l.tail)
	}
}

func (l *List) assign(src object.Object) {
	if src == object.Object(l) {
		return
	}
	items := object.Items(src)
	elem := iterType(src)
	l.clear()
	l.elem = elem
	for _, item := range items {
		l.Push(item)
	}
}

// Get returns the item at i. Negative indices count from the end.
func (l *List) Get(i int) object.Object {
	return l.at(position(i, l.nitems, "List")).item
}

// Set assigns v into the item at i.
func (l *List) Set(i int, v object.Object) {
	object.Assign(l.at(position(i, l.nitems, "List")).item, v)
}

func (l *List) find(v object.Object) *listNode {
	for n := l.head; n != nil; n = n.next {
		if object.Eq(n.item, v) {
			return n
		}
	}
	return nil
}

// Mem reports whether an item equal to v is present.
func (l *List) Mem(v object.Object) bool { return l.find(v) != nil }

// Rem removes the first item equal to v.
func (l *List) Rem(v object.Object) {
	n := l.find(v)
	if n == nil {
		notFound(v, "List")
	}
	l.unlink(n)
}

// Push appends a copy of v.
func (l *List) Push(v object.Object) { l.linkBefore(l.newNode(v), nil) }

// Pop removes the last item.
func (l *List) Pop() {
	if l.tail == nil {
		exception.Raise(errors.EmptyPop("List"))
	}
	l.unlink(l.tail)
}

// PushAt inserts a copy of v before position i. i may equal Len.
func (l *List) PushAt(v object.Object, i int) {
	i = insertPosition(i, l.nitems, "List")
	var at *listNode
	if i < l.nitems {
		at = l.at(i)
	}
	l.linkBefore(l.newNode(v), at)
}

// PopAt removes the item at i.
func (l *List) PopAt(i int) {
	l.unlink(l.at(position(i, l.nitems, "List")))
}

// Concat appends copies of every item of obj.
func (l *List) Concat(obj object.Object) {
	for _, item := range object.Items(obj) {
		l.Push(item)
	}
}

// Resize truncates the list to n items. Lists cannot be grown this way.
func (l *List) Resize(n int) {
	if n < 0 || n > l.nitems {
		exception.Throw(errors.FormatError, "Cannot resize List to %d items as it only contains %d items", n, l.nitems)
	}
	for l.nitems > n {
		l.unlink(l.tail)
	}
}

func (l *List) nodeSlice() []*listNode {
	nodes := make([]*listNode, 0, l.nitems)
	for n := l.head; n != nil; n = n.next {
		nodes = append(nodes, n)
	}
	return nodes
}

// relink rebuilds the links to follow the order of nodes.
func (l *List) relink(nodes []*listNode) {
	l.head, l.tail = nil, nil
	var prev *listNode
	for _, n := range nodes {
		n.prev, n.next = prev, nil
		if prev != nil {
			prev.next = n
		} else {
			l.head = n
		}
		prev = n
	}
	l.tail = prev
}

// SortBy reorders the nodes so that less holds between neighbours. Items
// keep their addresses.
func (l *List) SortBy(less func(x, y object.Object) bool) {
	nodes := l.nodeSlice()
	quicksort(0, len(nodes)-1, func(i, j int) bool {
		return less(nodes[i].item, nodes[j].item)
	}, func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	l.relink(nodes)
}

// Reverse reverses the order of the nodes.
func (l *List) Reverse() {
	nodes := l.nodeSlice()
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	l.relink(nodes)
}
