package exception

import (
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/orizon-lang/objrt/internal/errors"
)

// SignalMapping pairs an OS signal with the error kind it is raised as.
type SignalMapping struct {
	Signal  os.Signal
	Kind    *errors.Kind
	Message string
}

var (
	translating atomic.Bool

	signalMu      sync.Mutex
	signalTargets []*State
)

// SignalTable returns the signal mappings supported on this platform.
func SignalTable() []SignalMapping {
	return append([]SignalMapping(nil), signalTable...)
}

// LookupSignal returns the mapping for sig.
func LookupSignal(sig os.Signal) (SignalMapping, bool) {
	for _, m := range signalTable {
		if m.Signal == sig {
			return m, true
		}
	}
	return SignalMapping{}, false
}

// InstallSignals starts translating OS signals into thrown errors.
//
// Faults raised synchronously by Go code (nil dereference, integer division by
// zero) are translated inside Try frames. Signals delivered asynchronously are
// posted as interrupts to the target states, or are fatal when no target is
// registered. The returned function uninstalls the shim.
func InstallSignals(targets ...*State) (uninstall func()) {
	signalMu.Lock()
	signalTargets = append(signalTargets[:0], targets...)
	signalMu.Unlock()

	sigs := make([]os.Signal, 0, len(signalTable))
	for _, m := range signalTable {
		sigs = append(sigs, m.Signal)
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	translating.Store(true)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				deliverSignal(sig)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
			translating.Store(false)
			signalMu.Lock()
			signalTargets = nil
			signalMu.Unlock()
		})
	}
}

func deliverSignal(sig os.Signal) {
	m, ok := LookupSignal(sig)
	if !ok {
		return
	}

	signalMu.Lock()
	targets := append([]*State(nil), signalTargets...)
	signalMu.Unlock()

	if len(targets) == 0 {
		Fatal(errors.New(m.Kind, m.Message, map[string]interface{}{"signal": sig.String()}))
		return
	}
	for _, s := range targets {
		s.Interrupt(m.Kind, m.Message)
	}
}

// translateFault maps Go runtime faults onto signal-derived kinds while the
// shim is installed.
func translateFault(err error) *errors.Error {
	if !translating.Load() {
		return nil
	}
	re, ok := err.(runtime.Error)
	if !ok {
		return nil
	}

	msg := re.Error()
	switch {
	case strings.Contains(msg, "divide by zero"):
		return errors.New(errors.DivisionByZeroError, "Division by Zero", map[string]interface{}{"fault": msg})
	case strings.Contains(msg, "nil pointer dereference"), strings.Contains(msg, "invalid memory address"):
		return errors.New(errors.SegmentationError, "Segmentation fault", map[string]interface{}{"fault": msg})
	}
	return nil
}
