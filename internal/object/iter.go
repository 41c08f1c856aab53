package object

import "iter"

func iterOps(obj Object, method string, present func(*IterOps) bool) *IterOps {
	ops := instanceOf[*IterOps](obj, CapIter)
	if !present(ops) {
		methodMissing(obj, CapIter, method)
	}
	return ops
}

// IterInit returns the first item of obj, or Terminal when it is empty.
func IterInit(obj Object) Object {
	return iterOps(obj, "iter_init", func(o *IterOps) bool { return o.Init != nil }).Init(obj)
}

// IterNext returns the item after cur, or Terminal.
func IterNext(obj, cur Object) Object {
	return iterOps(obj, "iter_next", func(o *IterOps) bool { return o.Next != nil }).Next(obj, cur)
}

// IterLast returns the last item of obj, or Terminal.
func IterLast(obj Object) Object {
	return iterOps(obj, "iter_last", func(o *IterOps) bool { return o.Last != nil }).Last(obj)
}

// IterPrev returns the item before cur, or Terminal.
func IterPrev(obj, cur Object) Object {
	return iterOps(obj, "iter_prev", func(o *IterOps) bool { return o.Prev != nil }).Prev(obj, cur)
}

// IterType returns the type of the items obj yields. Views that cannot know
// it report RefType.
func IterType(obj Object) *Type {
	return iterOps(obj, "iter_type", func(o *IterOps) bool { return o.Type != nil }).Type(obj)
}

// IsIterable reports whether obj can be iterated forward.
func IsIterable(obj Object) bool {
	return TypeOf(obj).ImplementsMethod(CapIter, "Init")
}

// All iterates obj from the first item to the last.
func All(obj Object) iter.Seq[Object] {
	return func(yield func(Object) bool) {
		ops := iterOps(obj, "iter_next", func(o *IterOps) bool { return o.Init != nil && o.Next != nil })
		for cur := ops.Init(obj); cur != Terminal; cur = ops.Next(obj, cur) {
			if !yield(cur) {
				return
			}
		}
	}
}

// Backward iterates obj from the last item to the first.
func Backward(obj Object) iter.Seq[Object] {
	return func(yield func(Object) bool) {
		ops := iterOps(obj, "iter_prev", func(o *IterOps) bool { return o.Last != nil && o.Prev != nil })
		for cur := ops.Last(obj); cur != Terminal; cur = ops.Prev(obj, cur) {
			if !yield(cur) {
				return
			}
		}
	}
}

// Enumerated iterates obj yielding each item with its position.
func Enumerated(obj Object) iter.Seq2[int, Object] {
	return func(yield func(int, Object) bool) {
		i := 0
		for item := range All(obj) {
			if !yield(i, item) {
				return
			}
			i++
		}
	}
}

// Items collects obj's items into a Go slice.
func Items(obj Object) []Object {
	var out []Object
	for item := range All(obj) {
		out = append(out, item)
	}
	return out
}
