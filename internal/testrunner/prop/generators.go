package prop

import "math/rand"

// GenInt returns integers in [-size, size].
func GenInt() Generator[int] {
	return func(r *rand.Rand, size int) int {
		if size <= 0 {
			size = 30
		}
		return r.Intn(2*size+1) - size
	}
}

// ShrinkInt proposes zero, the half and the neighbour toward zero.
func ShrinkInt() Shrinker[int] {
	return func(v int) []int {
		switch {
		case v == 0:
			return nil
		case v == 1 || v == -1:
			return []int{0}
		case v > 0:
			return dedupe([]int{0, v / 2, v - 1})
		default:
			return dedupe([]int{0, v / 2, v + 1})
		}
	}
}

func dedupe(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// GenSlice returns slices of up to size elements drawn from elem.
func GenSlice[T any](elem Generator[T]) Generator[[]T] {
	return func(r *rand.Rand, size int) []T {
		out := make([]T, r.Intn(max(size, 0)+1))
		for i := range out {
			out[i] = elem(r, size)
		}
		return out
	}
}

// ShrinkSlice proposes each half of v, then v with one element dropped,
// then v with its first element shrunk by elem.
func ShrinkSlice[T any](elem Shrinker[T]) Shrinker[[]T] {
	return func(v []T) [][]T {
		if len(v) == 0 {
			return nil
		}
		var out [][]T
		if len(v) >= 2 {
			mid := len(v) / 2
			out = append(out, clone(v[:mid]), clone(v[mid:]))
		}
		for i := len(v) - 1; i >= 0 && len(out) < 16; i-- {
			out = append(out, append(clone(v[:i]), v[i+1:]...))
		}
		if elem != nil {
			for _, s := range elem(v[0]) {
				out = append(out, append([]T{s}, v[1:]...))
			}
		}
		return out
	}
}

func clone[T any](v []T) []T { return append([]T(nil), v...) }

// OpKind is a mutation applied to a keyed container.
type OpKind int

const (
	OpSet OpKind = iota
	OpRem
	OpGet
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpRem:
		return "rem"
	default:
		return "get"
	}
}

// MapOp is one step of a generated map workload.
type MapOp struct {
	Kind OpKind
	Key  int
	Val  int
}

// GenMapOps returns a generator of map workloads. Keys are drawn from a
// range narrower than the script so that overwrites and removals of
// present keys are common.
func GenMapOps() Generator[[]MapOp] {
	return func(r *rand.Rand, size int) []MapOp {
		if size <= 0 {
			size = 30
		}
		n := r.Intn(size*8 + 1)
		keys := size*2 + 1
		ops := make([]MapOp, n)
		for i := range ops {
			op := MapOp{Key: r.Intn(keys) - size, Val: r.Int()}
			switch x := r.Intn(10); {
			case x < 6:
				op.Kind = OpSet
			case x < 9:
				op.Kind = OpRem
			default:
				op.Kind = OpGet
			}
			ops[i] = op
		}
		return ops
	}
}

// ShrinkMapOps shrinks a workload by dropping halves and single steps.
func ShrinkMapOps() Shrinker[[]MapOp] {
	return ShrinkSlice[MapOp](nil)
}
