package object

import (
	"io"

	"github.com/orizon-lang/objrt/internal/errors"
)

func streamOps(obj Object, method string, present func(*StreamOps) bool) *StreamOps {
	ops := instanceOf[*StreamOps](obj, CapStream)
	if !present(ops) {
		methodMissing(obj, CapStream, method)
	}
	return ops
}

// Open opens obj on resource with options, closing whatever it had open
// before, and returns obj.
func Open(obj, resource, options Object) Object {
	return streamOps(obj, "sopen", func(o *StreamOps) bool { return o.Open != nil }).Open(obj, resource, options)
}

func Close(obj Object) {
	streamOps(obj, "sclose", func(o *StreamOps) bool { return o.Close != nil }).Close(obj)
}

func Seek(obj Object, pos int64, whence int) {
	streamOps(obj, "sseek", func(o *StreamOps) bool { return o.Seek != nil }).Seek(obj, pos, whence)
}

func Tell(obj Object) int64 {
	return streamOps(obj, "stell", func(o *StreamOps) bool { return o.Tell != nil }).Tell(obj)
}

func Flush(obj Object) {
	streamOps(obj, "sflush", func(o *StreamOps) bool { return o.Flush != nil }).Flush(obj)
}

func EOF(obj Object) bool {
	return streamOps(obj, "seof", func(o *StreamOps) bool { return o.EOF != nil }).EOF(obj)
}

// Read fills p from obj and returns the number of bytes read. A short count
// means the stream ended.
func Read(obj Object, p []byte) int {
	return streamOps(obj, "sread", func(o *StreamOps) bool { return o.Read != nil }).Read(obj, p)
}

// Write writes p to obj and returns the number of bytes written.
func Write(obj Object, p []byte) int {
	return streamOps(obj, "swrite", func(o *StreamOps) bool { return o.Write != nil }).Write(obj, p)
}

// StreamIO adapts a Stream object to io.Reader, io.Writer and io.Seeker.
// Exceptions thrown by the stream propagate to the caller.
type StreamIO struct {
	obj Object
}

// IO returns an io adapter over obj. It throws if obj is not a Stream.
func IO(obj Object) *StreamIO {
	instanceOf[*StreamOps](obj, CapStream)
	return &StreamIO{obj: obj}
}

func (s *StreamIO) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if n := Read(s.obj, p); n > 0 {
		return n, nil
	}
	return 0, io.EOF
}

func (s *StreamIO) Write(p []byte) (int, error) {
	n := Write(s.obj, p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Seek fails with an error, rather than throwing, when the stream cannot
// seek or tell.
func (s *StreamIO) Seek(offset int64, whence int) (int64, error) {
	ops := instanceOf[*StreamOps](s.obj, CapStream)
	if ops.Seek == nil || ops.Tell == nil {
		return 0, errors.MethodMissing(TypeOf(s.obj).name, CapStream.name, "sseek")
	}
	ops.Seek(s.obj, offset, whence)
	return ops.Tell(s.obj), nil
}
