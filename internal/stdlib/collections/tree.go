package collections

import (
	"fmt"
	"iter"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

type treeNode struct {
	left, right, parent *treeNode
	red                 bool
	key, val            object.Object
}

func isRed(n *treeNode) bool { return n != nil && n.red }

func leftmost(n *treeNode) *treeNode {
	for n != nil && n.left != nil {
		n = n.left
	}
	return n
}

func rightmost(n *treeNode) *treeNode {
	for n != nil && n.right != nil {
		n = n.right
	}
	return n
}

func successor(n *treeNode) *treeNode {
	if n.right != nil {
		return leftmost(n.right)
	}
	for n.parent != nil && n == n.parent.right {
		n = n.parent
	}
	return n.parent
}

func predecessor(n *treeNode) *treeNode {
	if n.left != nil {
		return rightmost(n.left)
	}
	for n.parent != nil && n == n.parent.left {
		n = n.parent
	}
	return n.parent
}

// Tree is an ordered map kept balanced as a red-black tree. Iteration
// visits keys in ascending order.
type Tree struct {
	object.Header
	ktype, vtype *object.Type
	root         *treeNode
	nitems       int
	nodes        map[uintptr]*treeNode
}

// TreeType is the runtime type of Tree.
var TreeType *object.Type

func init() {
	TreeType = object.Define[Tree]("Tree",
		&object.DocOps{
			Name:  "Tree",
			Brief: "Balanced Binary Tree",
			Description: "The Tree type is an ordered map implemented as a red-black tree. Keys " +
				"must implement Cmp. Iteration yields keys in ascending order.",
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {
				t := self.(*Tree)
				kt, rest := typeArg(args, "Tree")
				vt, rest := typeArg(rest, "Tree")
				t.clear()
				t.ktype, t.vtype = kt, vt
				for _, kv := range pairArgs(rest, "Tree") {
					t.Set(kv[0], kv[1])
				}
			},
			Del: func(self object.Object) { self.(*Tree).clear() },
		},
		&object.AssignOps{Assign: func(self, obj object.Object) { self.(*Tree).assign(obj) }},
		&object.CmpOps{Cmp: func(self, obj object.Object) int { return cmpMapping(self.(*Tree), obj) }},
		&object.HashOps{Hash: func(self object.Object) uint64 { return hashMapping(self.(*Tree)) }},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			markMapping(self.(*Tree), visit)
		}},
		&object.LenOps{Len: func(self object.Object) int { return self.(*Tree).nitems }},
		&object.IterOps{
			Init: func(self object.Object) object.Object { return keyOf(leftmost(self.(*Tree).root)) },
			Next: func(self, cur object.Object) object.Object {
				if n := self.(*Tree).node(cur); n != nil {
					return keyOf(successor(n))
				}
				return object.Terminal
			},
			Last: func(self object.Object) object.Object { return keyOf(rightmost(self.(*Tree).root)) },
			Prev: func(self, cur object.Object) object.Object {
				if n := self.(*Tree).node(cur); n != nil {
					return keyOf(predecessor(n))
				}
				return object.Terminal
			},
			Type: func(self object.Object) *object.Type { return self.(*Tree).KeyType() },
		},
		&object.GetOps{
			Get:     func(self, k object.Object) object.Object { return self.(*Tree).Get(k) },
			Set:     func(self, k, v object.Object) { self.(*Tree).Set(k, v) },
			Mem:     func(self, k object.Object) bool { return self.(*Tree).Mem(k) },
			Rem:     func(self, k object.Object) { self.(*Tree).Rem(k) },
			KeyType: func(self object.Object) *object.Type { return self.(*Tree).KeyType() },
			ValType: func(self object.Object) *object.Type { return self.(*Tree).ValType() },
		},
		&object.ResizeOps{Resize: func(self object.Object, n int) { self.(*Tree).Resize(n) }},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) { showMapping(b, self.(*Tree)) }},
	)
}

// NewTree allocates a heap Tree from ktype to vtype. kv alternates keys
// and values.
func NewTree(ktype, vtype *object.Type, kv ...object.Object) *Tree {
	args := append([]object.Object{ktype, vtype}, kv...)
	return object.New(TreeType, args...).(*Tree)
}

func keyOf(n *treeNode) object.Object {
	if n == nil {
		return object.Terminal
	}
	return n.key
}

// KeyType returns the key type.
func (t *Tree) KeyType() *object.Type {
	if t.ktype == nil {
		return object.RefType
	}
	return t.ktype
}

// ValType returns the value type.
func (t *Tree) ValType() *object.Type {
	if t.vtype == nil {
		return object.RefType
	}
	return t.vtype
}

// Len returns the number of entries.
func (t *Tree) Len() int { return t.nitems }

func (t *Tree) node(k object.Object) *treeNode {
	if k == nil {
		return nil
	}
	return t.nodes[object.Address(k)]
}

func (t *Tree) index(n *treeNode) {
	if t.nodes == nil {
		t.nodes = make(map[uintptr]*treeNode)
	}
	t.nodes[object.Address(n.key)] = n
}

func (t *Tree) pairs() iter.Seq2[object.Object, object.Object] {
	return func(yield func(object.Object, object.Object) bool) {
		for n := leftmost(t.root); n != nil; n = successor(n) {
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}

func (t *Tree) clear() {
	var drop func(n *treeNode)
	drop = func(n *treeNode) {
		if n == nil {
			return
		}
		drop(n.left)
		drop(n.right)
		object.Destruct(n.key)
		object.Destruct(n.val)
	}
	drop(t.root)
	t.root, t.nodes, t.nitems = nil, nil, 0
}

func (t *Tree) assign(src object.Object) {
	if src == object.Object(t) {
		return
	}
	next := &Tree{}
	next.ktype, next.vtype = mappingTypes(src)
	fillMapping(src, next.Set)
	t.clear()
	t.ktype, t.vtype = next.ktype, next.vtype
	t.root, t.nodes, t.nitems = next.root, next.nodes, next.nitems
}

func (t *Tree) find(k object.Object) *treeNode {
	n := t.root
	for n != nil {
		c := object.Cmp(n.key, k)
		switch {
		case c == 0:
			return n
		case c > 0:
			n = n.left
		default:
			n = n.right
		}
	}
	return nil
}

// Get returns the value stored under k.
func (t *Tree) Get(k object.Object) object.Object {
	n := t.find(k)
	if n == nil {
		exception.Raise(errors.KeyMissing(object.Show(k), "Tree"))
	}
	return n.val
}

// Mem reports whether k is present.
func (t *Tree) Mem(k object.Object) bool { return t.find(k) != nil }

// Set stores a copy of v under a copy of k, replacing any existing value.
func (t *Tree) Set(k, v object.Object) {
	var parent *treeNode
	link := &t.root
	for n := *link; n != nil; n = *link {
		c := object.Cmp(n.key, k)
		switch {
		case c == 0:
			object.Assign(n.val, v)
			return
		case c > 0:
			parent, link = n, &n.left
		default:
			parent, link = n, &n.right
		}
	}

	key := object.Assign(object.AllocAs(t.KeyType(), object.AllocEmbedded), k)
	val := object.Assign(object.AllocAs(t.ValType(), object.AllocEmbedded), v)
	n := &treeNode{parent: parent, red: true, key: key, val: val}
	*link = n
	t.index(n)
	t.nitems++
	t.insertFixup(n)
}

// replace puts n in old's position under old's parent.
func (t *Tree) replace(old, n *treeNode) {
	if n != nil {
		n.parent = old.parent
	}
	switch {
	case old.parent == nil:
		t.root = n
	case old == old.parent.left:
		old.parent.left = n
	default:
		old.parent.right = n
	}
}

func (t *Tree) rotateLeft(x *treeNode) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	t.replace(x, y)
	y.left = x
	x.parent = y
}

func (t *Tree) rotateRight(x *treeNode) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	t.replace(x, y)
	y.right = x
	x.parent = y
}

func (t *Tree) insertFixup(z *treeNode) {
	for isRed(z.parent) {
		p := z.parent
		g := p.parent
		if p == g.left {
			if u := g.right; isRed(u) {
				p.red, u.red, g.red = false, false, true
				z = g
				continue
			}
			if z == p.right {
				z = p
				t.rotateLeft(z)
				p = z.parent
			}
			p.red, g.red = false, true
			t.rotateRight(g)
		} else {
			if u := g.left; isRed(u) {
				p.red, u.red, g.red = false, false, true
				z = g
				continue
			}
			if z == p.left {
				z = p
				t.rotateRight(z)
				p = z.parent
			}
			p.red, g.red = false, true
			t.rotateLeft(g)
		}
	}
	t.root.red = false
}

// Rem removes k and its value. A node with two children first trades its
// entry with its in-order predecessor, which is then unlinked instead.
func (t *Tree) Rem(k object.Object) {
	n := t.find(k)
	if n == nil {
		exception.Raise(errors.KeyMissing(object.Show(k), "Tree"))
	}

	if n.left != nil && n.right != nil {
		pred := rightmost(n.left)
		n.key, pred.key = pred.key, n.key
		n.val, pred.val = pred.val, n.val
		t.index(n)
		t.index(pred)
		n = pred
	}

	delete(t.nodes, object.Address(n.key))
	object.Destruct(n.key)
	object.Destruct(n.val)

	child := n.left
	if child == nil {
		child = n.right
	}
	switch {
	case child != nil:
		// A node with a single child is black and its child red.
		t.replace(n, child)
		child.red = false
	case n.parent == nil:
		t.root = nil
	default:
		if !n.red {
			t.deleteFixup(n)
		}
		t.replace(n, nil)
	}
	t.nitems--
}

// deleteFixup restores the black height around x, a black leaf about to
// be unlinked.
func (t *Tree) deleteFixup(x *treeNode) {
	for x != t.root && !x.red {
		p := x.parent
		if x == p.left {
			s := p.right
			if s.red {
				s.red, p.red = false, true
				t.rotateLeft(p)
				s = p.right
			}
			if !isRed(s.left) && !isRed(s.right) {
				s.red = true
				x = p
				continue
			}
			if !isRed(s.right) {
				s.left.red, s.red = false, true
				t.rotateRight(s)
				s = p.right
			}
			s.red, p.red = p.red, false
			s.right.red = false
			t.rotateLeft(p)
			x = t.root
		} else {
			s := p.left
			if s.red {
				s.red, p.red = false, true
				t.rotateRight(p)
				s = p.left
			}
			if !isRed(s.left) && !isRed(s.right) {
				s.red = true
				x = p
				continue
			}
			if !isRed(s.left) {
				s.right.red, s.red = false, true
				t.rotateLeft(s)
				s = p.left
			}
			s.red, p.red = p.red, false
			s.left.red = false
			t.rotateRight(p)
			x = t.root
		}
	}
	x.red = false
}

// Resize clears the tree. Trees have no capacity, so zero is the only
// valid size.
func (t *Tree) Resize(n int) {
	if n != 0 {
		exception.Throw(errors.FormatError, "Cannot resize Tree to %d items. Trees can only be resized to 0 items.", n)
	}
	t.clear()
}

// verify checks the red-black and ordering invariants.
func (t *Tree) verify() error {
	if isRed(t.root) {
		return fmt.Errorf("root is red")
	}
	count := 0
	var walk func(n, parent *treeNode) (int, error)
	walk = func(n, parent *treeNode) (int, error) {
		if n == nil {
			return 1, nil
		}
		count++
		if n.parent != parent {
			return 0, fmt.Errorf("node %s has a stale parent link", object.Show(n.key))
		}
		if n.red && (isRed(n.left) || isRed(n.right)) {
			return 0, fmt.Errorf("red node %s has a red child", object.Show(n.key))
		}
		if n.left != nil && object.Cmp(n.left.key, n.key) >= 0 {
			return 0, fmt.Errorf("left child of %s is out of order", object.Show(n.key))
		}
		if n.right != nil && object.Cmp(n.right.key, n.key) <= 0 {
			return 0, fmt.Errorf("right child of %s is out of order", object.Show(n.key))
		}
		if t.nodes[object.Address(n.key)] != n {
			return 0, fmt.Errorf("node %s is not indexed", object.Show(n.key))
		}
		lh, err := walk(n.left, n)
		if err != nil {
			return 0, err
		}
		rh, err := walk(n.right, n)
		if err != nil {
			return 0, err
		}
		if lh != rh {
			return 0, fmt.Errorf("black height differs under %s: %d vs %d", object.Show(n.key), lh, rh)
		}
		if !n.red {
			lh++
		}
		return lh, nil
	}
	if _, err := walk(t.root, nil); err != nil {
		return err
	}
	if count != t.nitems || len(t.nodes) != t.nitems {
		return fmt.Errorf("tree holds %d nodes, %d indexed, expected %d", count, len(t.nodes), t.nitems)
	}
	return nil
}
