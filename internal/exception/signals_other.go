//go:build !unix

package exception

import (
	"os"
	"syscall"

	"github.com/orizon-lang/objrt/internal/errors"
)

var signalTable = []SignalMapping{
	{Signal: os.Interrupt, Kind: errors.ProgramInterruptedError, Message: "Program Interrupted"},
	{Signal: syscall.SIGTERM, Kind: errors.ProgramTerminationError, Message: "Program Terminated"},
}
