package streams

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Process is a shell command whose standard output can be read (mode "r")
// or whose standard input can be written (mode "w"), like popen.
type Process struct {
	object.Header

	mu      sync.Mutex
	cmd     *exec.Cmd
	command string
	pipe    io.Closer
	r       *bufio.Reader
	w       *bufio.Writer
	eof     bool
}

// ProcessType is the runtime type of Process.
var ProcessType *object.Type

func init() {
	ProcessType = object.Define[Process]("Process",
		&object.DocOps{
			Name:  "Process",
			Brief: "Operating System Process",
			Description: "The Process type runs a command through the shell and streams its " +
				"standard output (mode r) or its standard input (mode w). Pipes cannot seek. " +
				"Closing waits for the command and throws an IOError if it failed.",
			Examples: []string{
				"p := streams.NewProcess(object.S(\"ls\"), object.S(\"r\"))\n" +
					"buf := make([]byte, 1)\nfor object.Read(p, buf) == 1 {\n\tos.Stdout.Write(buf)\n}\nobject.Close(p)",
			},
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {
				if len(args) > 0 {
					openArgs(self, args)
				}
			},
			Del: func(self object.Object) {
				if p := self.(*Process); p.IsOpen() {
					must(p.Close())
				}
			},
		},
		&object.StartOps{
			Stop:    func(self object.Object) { must(self.(*Process).Close()) },
			Running: func(self object.Object) bool { return self.(*Process).IsOpen() },
		},
		&object.StreamOps{
			Open: func(self, resource, options object.Object) object.Object {
				must(self.(*Process).Open(object.CStr(resource), object.CStr(options)))
				return self
			},
			Close: func(self object.Object) { must(self.(*Process).Close()) },
			Seek: func(self object.Object, pos int64, whence int) {
				self.(*Process).checkOpen("Cannot seek process - no process open.")
				exception.Throw(errors.IOError, "Failed to seek in process: illegal seek")
			},
			Tell: func(self object.Object) int64 {
				self.(*Process).checkOpen("Cannot tell process - no process open.")
				exception.Throw(errors.IOError, "Failed to tell process: illegal seek")
				return -1
			},
			Flush: func(self object.Object) { must(self.(*Process).Flush()) },
			EOF: func(self object.Object) bool {
				eof, err := self.(*Process).EOF()
				must(err)
				return eof
			},
			Read: func(self object.Object, p []byte) int {
				n, err := readFull(self.(*Process), p)
				must(err)
				return n
			},
			Write: func(self object.Object, p []byte) int {
				n, err := self.(*Process).Write(p)
				must(err)
				return n
			},
		},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			p := self.(*Process)
			p.mu.Lock()
			defer p.mu.Unlock()
			if p.cmd == nil {
				fmt.Fprintf(b, "<'Process' At %p closed>", self)
				return
			}
			fmt.Fprintf(b, "<'Process' At %p %q pid=%d>", self, p.command, p.cmd.Process.Pid)
		}},
	)
}

// NewProcess allocates a heap Process. Given a command and a mode it starts
// the command, throwing an IOError when it cannot.
func NewProcess(args ...object.Object) *Process {
	return object.New(ProcessType, args...).(*Process)
}

// shell returns the command line that runs command through the system
// shell.
func shell(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", command)
	}
	return exec.Command("/bin/sh", "-c", command)
}

// Open starts command with a pipe in the direction mode names, closing any
// command p already had open.
func (p *Process) Open(command, mode string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		if err := p.closeLocked(); err != nil {
			return err
		}
	}

	fail := func(cause string) error {
		return errors.New(errors.IOError, "Could not open process: "+command,
			map[string]interface{}{"mode": mode, "cause": cause})
	}
	cmd := shell(command)
	cmd.Stderr = os.Stderr
	switch strings.TrimRight(mode, "b") {
	case "r":
		out, err := cmd.StdoutPipe()
		if err != nil {
			return fail(err.Error())
		}
		p.pipe, p.r, p.w = out, bufio.NewReader(out), nil
	case "w":
		cmd.Stdout = os.Stdout
		in, err := cmd.StdinPipe()
		if err != nil {
			return fail(err.Error())
		}
		p.pipe, p.r, p.w = in, nil, bufio.NewWriter(in)
	default:
		return fail("unsupported mode")
	}
	if err := cmd.Start(); err != nil {
		p.pipe.Close()
		p.pipe, p.r, p.w = nil, nil, nil
		return fail(err.Error())
	}
	p.cmd, p.command, p.eof = cmd, command, false
	return nil
}

// Close closes the pipe and waits for the command to exit.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return errors.Newf(errors.IOError, "Cannot close process - no process open.")
	}
	return p.closeLocked()
}

func (p *Process) closeLocked() error {
	var werr error
	if p.w != nil {
		werr = p.w.Flush()
	}
	p.pipe.Close()
	err := p.cmd.Wait()
	p.cmd, p.pipe, p.r, p.w = nil, nil, nil, nil
	if err == nil {
		err = werr
	}
	if err != nil {
		return errors.Newf(errors.IOError, "Failed to close process: %v", err)
	}
	return nil
}

func (p *Process) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

func (p *Process) checkOpen(msg string) {
	if !p.IsOpen() {
		exception.Throw(errors.IOError, "%s", msg)
	}
}

// Flush sends buffered input to the command.
func (p *Process) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return errors.Newf(errors.IOError, "Cannot flush process - no process open.")
	}
	if p.w == nil {
		return nil
	}
	if err := p.w.Flush(); err != nil {
		return errors.Newf(errors.IOError, "Failed to flush process: %v", err)
	}
	return nil
}

// EOF reports whether a read has reached the end of the command's output.
func (p *Process) EOF() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return false, errors.Newf(errors.IOError, "Cannot eof process - no process open.")
	}
	return p.eof, nil
}

// Read implements io.Reader over the command's standard output.
func (p *Process) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return 0, errors.Newf(errors.IOError, "Cannot read process - no process open.")
	}
	if p.r == nil {
		return 0, errors.Newf(errors.IOError, "Failed to read from process: opened for writing")
	}
	n, err := p.r.Read(b)
	switch {
	case err == io.EOF:
		p.eof = true
		return n, io.EOF
	case err != nil:
		return n, errors.Newf(errors.IOError, "Failed to read from process: %v", err)
	}
	return n, nil
}

// Write implements io.Writer over the command's standard input.
func (p *Process) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return 0, errors.Newf(errors.IOError, "Cannot write process - no process open.")
	}
	if p.w == nil {
		return 0, errors.Newf(errors.IOError, "Failed to write to process: opened for reading")
	}
	n, err := p.w.Write(b)
	if err != nil {
		return n, errors.Newf(errors.IOError, "Failed to write to process: %v", err)
	}
	return n, nil
}
