// Package streams provides the Stream types: File over an operating system
// file and Process over the pipe of a child process. Both implement the
// Stream, Start and New capabilities and the io interfaces, so format can
// print to and scan from them directly.
package streams

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// File is an operating system file opened with an fopen style mode.
type File struct {
	object.Header

	mu   sync.Mutex
	file *os.File
	name string
	eof  bool
}

// FileType is the runtime type of File.
var FileType *object.Type

func init() {
	FileType = object.Define[File]("File",
		&object.DocOps{
			Name:  "File",
			Brief: "Operating System File",
			Description: "The File type wraps a file in the operating system. Modes follow fopen: " +
				"r, w and a, optionally with + for update, b (ignored) and x for exclusive " +
				"creation. A File still open when it is deleted is closed.",
			Examples: []string{
				"f := streams.NewFile(object.S(\"test.txt\"), object.S(\"w\"))\n" +
					"format.PrintTo(f, \"%$ is %$ \", object.S(\"Dan\"), object.I(23))\nobject.Close(f)",
			},
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {
				if len(args) > 0 {
					openArgs(self, args)
				}
			},
			Del: func(self object.Object) {
				if f := self.(*File); f.IsOpen() {
					must(f.Close())
				}
			},
		},
		&object.StartOps{
			Stop:    func(self object.Object) { must(self.(*File).Close()) },
			Running: func(self object.Object) bool { return self.(*File).IsOpen() },
		},
		&object.StreamOps{
			Open: func(self, resource, options object.Object) object.Object {
				must(self.(*File).Open(object.CStr(resource), object.CStr(options)))
				return self
			},
			Close: func(self object.Object) { must(self.(*File).Close()) },
			Seek: func(self object.Object, pos int64, whence int) {
				_, err := self.(*File).Seek(pos, whence)
				must(err)
			},
			Tell: func(self object.Object) int64 {
				pos, err := self.(*File).Tell()
				must(err)
				return pos
			},
			Flush: func(self object.Object) { must(self.(*File).Flush()) },
			EOF: func(self object.Object) bool {
				eof, err := self.(*File).EOF()
				must(err)
				return eof
			},
			Read: func(self object.Object, p []byte) int {
				n, err := readFull(self.(*File), p)
				must(err)
				return n
			},
			Write: func(self object.Object, p []byte) int {
				n, err := self.(*File).Write(p)
				must(err)
				return n
			},
		},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			f := self.(*File)
			if f.IsOpen() {
				fmt.Fprintf(b, "<'File' At %p %q>", self, f.Name())
				return
			}
			fmt.Fprintf(b, "<'File' At %p closed>", self)
		}},
	)
}

// NewFile allocates a heap File. Given a name and a mode it opens the file,
// throwing an IOError when it cannot.
func NewFile(args ...object.Object) *File {
	return object.New(FileType, args...).(*File)
}

// OpenFile allocates a File and opens name with mode.
func OpenFile(name, mode string) (*File, error) {
	f := NewFile()
	if err := f.Open(name, mode); err != nil {
		object.Del(f)
		return nil, err
	}
	return f, nil
}

// Open opens name with mode, closing any file f already had open.
func (f *File) Open(name, mode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file != nil {
		if err := f.closeLocked(); err != nil {
			return err
		}
	}
	flag, ok := fileFlags(mode)
	if !ok {
		return errors.New(errors.IOError, "Could not open file: "+name,
			map[string]interface{}{"mode": mode})
	}
	file, err := os.OpenFile(name, flag, 0644)
	if err != nil {
		return errors.New(errors.IOError, "Could not open file: "+name,
			map[string]interface{}{"mode": mode, "cause": err.Error()})
	}
	f.file, f.name, f.eof = file, name, false
	return nil
}

// Close closes the file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return errors.Newf(errors.IOError, "Cannot close file - no file open.")
	}
	return f.closeLocked()
}

func (f *File) closeLocked() error {
	err := f.file.Close()
	f.file = nil
	if err != nil {
		return errors.Newf(errors.IOError, "Failed to close file: %v", err)
	}
	return nil
}

func (f *File) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file != nil
}

// Name returns the name the file was opened with.
func (f *File) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Seek implements io.Seeker. It clears the end-of-file state.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return 0, errors.Newf(errors.IOError, "Cannot seek file - no file open.")
	}
	pos, err := f.file.Seek(offset, whence)
	if err != nil {
		return 0, errors.Newf(errors.IOError, "Failed to seek in file: %v", err)
	}
	f.eof = false
	return pos, nil
}

// Tell returns the current offset.
func (f *File) Tell() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return 0, errors.Newf(errors.IOError, "Cannot tell file - no file open.")
	}
	pos, err := f.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, errors.Newf(errors.IOError, "Failed to tell file: %v", err)
	}
	return pos, nil
}

// Flush commits written data to storage.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return errors.Newf(errors.IOError, "Cannot flush file - no file open.")
	}
	if err := f.file.Sync(); err != nil {
		return errors.Newf(errors.IOError, "Failed to flush file: %v", err)
	}
	return nil
}

// EOF reports whether a read has reached the end of the file since the
// last Open or Seek.
func (f *File) EOF() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return false, errors.Newf(errors.IOError, "Cannot eof file - no file open.")
	}
	return f.eof, nil
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return 0, errors.Newf(errors.IOError, "Cannot read file - no file open.")
	}
	n, err := f.file.Read(p)
	switch {
	case err == io.EOF:
		f.eof = true
		return n, io.EOF
	case err != nil:
		return n, errors.Newf(errors.IOError, "Failed to read from file: %v", err)
	}
	return n, nil
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return 0, errors.Newf(errors.IOError, "Cannot write file - no file open.")
	}
	n, err := f.file.Write(p)
	if err != nil {
		return n, errors.Newf(errors.IOError, "Failed to write to file: %v", err)
	}
	return n, nil
}

// fileFlags translates an fopen mode into os.OpenFile flags.
func fileFlags(mode string) (int, bool) {
	if mode == "" {
		return 0, false
	}
	update := false
	excl := false
	for _, c := range mode[1:] {
		switch c {
		case '+':
			update = true
		case 'x':
			excl = true
		case 'b', 't':
		default:
			return 0, false
		}
	}

	var flag int
	switch mode[0] {
	case 'r':
		if excl {
			return 0, false
		}
		flag = os.O_RDONLY
		if update {
			flag = os.O_RDWR
		}
		return flag, true
	case 'w':
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case 'a':
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return 0, false
	}
	if update {
		flag = flag&^os.O_WRONLY | os.O_RDWR
	}
	if excl {
		flag |= os.O_EXCL
	}
	return flag, true
}

// openArgs opens self from constructor arguments: a resource and an
// optional mode that defaults to reading.
func openArgs(self object.Object, args []object.Object) {
	mode := object.Object(object.S("r"))
	if len(args) > 1 {
		mode = args[1]
	}
	object.Open(self, args[0], mode)
}

// readFull reads until p is full or the stream ends. Reaching the end is
// not an error.
func readFull(r io.Reader, p []byte) (int, error) {
	n, err := io.ReadFull(r, p)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return n, err
}

// must throws err when it is set.
func must(err error) {
	if err == nil {
		return
	}
	if e, ok := err.(*errors.Error); ok {
		exception.Raise(e)
	}
	exception.Throw(errors.IOError, "%v", err)
}
