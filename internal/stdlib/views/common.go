package views

import (
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// viewArgs reads the (iterable, callable) arguments of Filter and Map.
func viewArgs(args []object.Object, view string) (object.Object, object.Object) {
	if len(args) != 2 {
		exception.Throw(errors.FormatError, "%s constructor expects an iterable and a callable, got %d arguments", view, len(args))
	}
	if !object.Implements(args[1], object.CapCall) {
		exception.Raise(errors.NotImplemented(object.TypeOf(args[1]).Name(), object.CapCall.Name()))
	}
	return args[0], args[1]
}

// itemType is the element type iter reports, or Ref when it cannot say.
func itemType(iter object.Object) *object.Type {
	if iter != nil && object.ImplementsMethod(iter, object.CapIter, "Type") {
		return object.IterType(iter)
	}
	return object.RefType
}

func contains(view, key object.Object) bool {
	for item := range object.All(view) {
		if object.Eq(item, key) {
			return true
		}
	}
	return false
}

func visitAll(visit func(object.Object), objs ...object.Object) {
	for _, o := range objs {
		if o != nil {
			visit(o)
		}
	}
}
