//go:build unix

package exception

import (
	"golang.org/x/sys/unix"

	"github.com/orizon-lang/objrt/internal/errors"
)

var signalTable = []SignalMapping{
	{Signal: unix.SIGABRT, Kind: errors.ProgramAbortedError, Message: "Program Aborted"},
	{Signal: unix.SIGFPE, Kind: errors.DivisionByZeroError, Message: "Division by Zero"},
	{Signal: unix.SIGILL, Kind: errors.IllegalInstructionError, Message: "Illegal Instruction"},
	{Signal: unix.SIGINT, Kind: errors.ProgramInterruptedError, Message: "Program Interrupted"},
	{Signal: unix.SIGSEGV, Kind: errors.SegmentationError, Message: "Segmentation fault"},
	{Signal: unix.SIGTERM, Kind: errors.ProgramTerminationError, Message: "Program Terminated"},
}
