// Package exception provides the runtime's structured throw/catch mechanism.
//
// A throw is a panic carrying an *errors.Error. Each thread owns a State whose
// Try frames turn throws back into ordinary error values; a throw that escapes
// every frame reaches the thread's Guard and is fatal.
package exception

import (
	stderrors "errors"
	"fmt"
	"sync/atomic"

	"github.com/orizon-lang/objrt/internal/errors"
)

// MaxDepth is the maximum number of nested Try frames per thread.
const MaxDepth = 2048

// State is a thread's exception frame stack.
type State struct {
	depth   int
	active  bool
	current *errors.Error
	pending atomic.Pointer[errors.Error]
}

// NewState creates an idle exception state.
func NewState() *State {
	return &State{}
}

// Depth returns the number of live Try frames.
func (s *State) Depth() int { return s.depth }

// Active reports whether a thrown error is waiting to be caught.
func (s *State) Active() bool { return s.active }

// Current returns the most recently thrown error, or nil.
func (s *State) Current() *errors.Error { return s.current }

// Throw raises an error of the given kind. It never returns.
func Throw(kind *errors.Kind, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	panic(errors.NewAt(1, kind, msg, nil))
}

// Raise re-throws an existing error value.
func Raise(err *errors.Error) {
	panic(err)
}

func (s *State) enter() {
	if s.depth >= MaxDepth {
		Abort("Exception Buffer Overflow!")
	}
	s.depth++
}

func (s *State) leave() {
	if s.depth == 0 {
		Abort("Exception Buffer Underflow!")
	}
	s.depth--
}

// Try runs fn inside a new frame. A throw from fn is returned as an error and
// leaves the state active until a Catch matches it. The frame is popped on
// every exit path.
func (s *State) Try(fn func()) (err error) {
	s.enter()
	defer func() {
		s.leave()
		if r := recover(); r != nil {
			e := recovered(r)
			s.active = true
			s.current = e
			err = e
		}
	}()

	s.Poll()
	fn()
	return nil
}

// Catch matches err against kinds. It reports false when nothing is being
// unwound. An empty kind list matches anything. A thrown error that matches
// none of the kinds is raised again towards the enclosing frame.
func (s *State) Catch(err error, kinds ...*errors.Kind) bool {
	if err == nil || !s.active {
		return false
	}

	var e *errors.Error
	if !stderrors.As(err, &e) {
		return false
	}

	if len(kinds) == 0 {
		s.active = false
		return true
	}

	for _, k := range kinds {
		if e.Kind == k {
			s.active = false
			return true
		}
	}

	panic(e)
}

// TryCatch runs fn and catches throws of the given kinds, returning the caught
// error. Other throws continue outward.
func (s *State) TryCatch(fn func(), kinds ...*errors.Kind) error {
	err := s.Try(fn)
	if err == nil {
		return nil
	}
	s.Catch(err, kinds...)
	return err
}

// Guard is the bottom frame of a thread. A throw reaching it is fatal.
func (s *State) Guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e := recovered(r)
			s.current = e
			Fatal(e)
		}
	}()
	fn()
}

// Interrupt schedules kind to be thrown at this state's next poll point.
func (s *State) Interrupt(kind *errors.Kind, message string) {
	s.pending.Store(errors.New(kind, message, nil))
}

// Interrupted reports whether an interrupt is pending.
func (s *State) Interrupted() bool {
	return s.pending.Load() != nil
}

// Poll throws a pending interrupt, if any.
func (s *State) Poll() {
	if e := s.pending.Swap(nil); e != nil {
		panic(e)
	}
}

// recovered converts a recovered panic value into a runtime error, panicking
// again for values that are not ours.
func recovered(r interface{}) *errors.Error {
	switch v := r.(type) {
	case *errors.Error:
		return v
	case error:
		if e := translateFault(v); e != nil {
			return e
		}
	}
	panic(r)
}
