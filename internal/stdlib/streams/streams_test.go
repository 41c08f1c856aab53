package streams

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/format"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/testrunner/assert"
)

func TestFilePrintAndScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	f := NewFile(object.S(path), object.S("w"))
	format.PrintTo(f, "%$ is %$ ", object.S("Dan"), object.I(23))
	format.PrintTo(f, "%$ is %$ ", object.S("Chess"), object.I(24))
	object.Close(f)
	assert.False(t, object.Running(f))

	object.Open(f, object.S(path), object.S("r"))
	k, v := object.NewString(""), object.NewInt(0)
	var got []string
	object.With(f, func() {
		for range 2 {
			assert.Equal(t, format.ScanFrom(f, "%$ is %$ ", k, v), 2)
			got = append(got, format.Sprintf("%s=%d", k, v))
		}
		assert.Equal(t, object.Read(f, make([]byte, 4)), 0, "both records consumed")
		assert.True(t, object.EOF(f))
	})
	assert.Equal(t, len(got), 2)
	assert.Equal(t, got[0], "Dan=23")
	assert.Equal(t, got[1], "Chess=24")
	assert.False(t, object.Running(f), "With closes the file")
	assert.Contains(t, object.Show(f), "closed>")
	object.Del(f)
}

func TestFileSeekTell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	f := NewFile(object.S(path), object.S("w+b"))
	defer object.Del(f)

	assert.Equal(t, object.Write(f, []byte("hello world")), 11)
	object.Flush(f)
	assert.Equal(t, object.Tell(f), int64(11))

	buf := make([]byte, 5)
	object.Seek(f, 0, io.SeekStart)
	assert.Equal(t, object.Read(f, buf), 5)
	assert.Equal(t, string(buf), "hello")
	assert.Equal(t, object.Tell(f), int64(5))
	assert.False(t, object.EOF(f))

	object.Seek(f, -5, io.SeekEnd)
	assert.Equal(t, object.Read(f, buf), 5)
	assert.Equal(t, string(buf), "world")
	assert.Equal(t, object.Read(f, buf), 0)
	assert.True(t, object.EOF(f))

	object.Seek(f, 6, io.SeekStart)
	assert.False(t, object.EOF(f), "seeking clears end of file")
	assert.Contains(t, object.Show(f), "data.bin")
}

func TestFileModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	for _, line := range []string{"one\n", "two\n"} {
		f, err := OpenFile(path, "a")
		assert.NoError(t, err)
		_, err = f.Write([]byte(line))
		assert.NoError(t, err)
		assert.NoError(t, f.Close())
	}
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, string(data), "one\ntwo\n")

	_, err = OpenFile(path, "wx")
	assert.ErrorIs(t, err, errors.IOError, "x refuses an existing file")

	for _, mode := range []string{"", "q", "rx", "r?"} {
		_, ok := fileFlags(mode)
		assert.False(t, ok, mode)
	}
	flag, ok := fileFlags("r+b")
	assert.True(t, ok)
	assert.Equal(t, flag, os.O_RDWR)
}

func TestFileErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")
	assert.ThrowsMessage(t, errors.IOError, "Could not open file: "+missing, func() {
		NewFile(object.S(missing))
	})
	assert.ThrowsMessage(t, errors.IOError, "Could not open file: "+missing, func() {
		NewFile(object.S(missing), object.S("z"))
	})

	f := NewFile()
	defer object.Del(f)
	for msg, fn := range map[string]func(){
		"Cannot close file - no file open.": func() { object.Close(f) },
		"Cannot seek file - no file open.":  func() { object.Seek(f, 0, io.SeekStart) },
		"Cannot tell file - no file open.":  func() { object.Tell(f) },
		"Cannot flush file - no file open.": func() { object.Flush(f) },
		"Cannot eof file - no file open.":   func() { object.EOF(f) },
		"Cannot read file - no file open.":  func() { object.Read(f, make([]byte, 1)) },
		"Cannot write file - no file open.": func() { object.Write(f, []byte("x")) },
	} {
		assert.ThrowsMessage(t, errors.IOError, msg, fn)
	}
	assert.ThrowsMessage(t, errors.IOError, "Cannot write file - no file open.", func() {
		format.PrintTo(f, "%d", object.I(1))
	}, "formatting keeps the stream's own error")
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process tests use /bin/sh")
	}
}

func TestProcessRead(t *testing.T) {
	skipWithoutShell(t)

	p := NewProcess(object.S("echo hello"), object.S("r"))
	assert.Contains(t, object.Show(p), `"echo hello" pid=`)

	var out []byte
	buf := make([]byte, 1)
	for !object.EOF(p) {
		n := object.Read(p, buf)
		out = append(out, buf[:n]...)
	}
	assert.Equal(t, string(out), "hello\n")
	assert.NoThrow(t, func() { object.Close(p) })
	object.Del(p)
}

func TestProcessWrite(t *testing.T) {
	skipWithoutShell(t)

	path := filepath.Join(t.TempDir(), "out.txt")
	p := NewProcess(object.S("cat > '"+path+"'"), object.S("w"))
	object.With(p, func() {
		format.PrintTo(p, "%d %s", object.I(1), object.S("two"))
		object.Flush(p)
	})
	assert.False(t, object.Running(p))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, string(data), "1 two")
	object.Del(p)
}

func TestProcessScan(t *testing.T) {
	skipWithoutShell(t)

	p := NewProcess(object.S("printf '40 2'"), object.S("r"))
	defer object.Del(p)
	a, b := object.NewInt(0), object.NewInt(0)
	assert.Equal(t, format.ScanFrom(p, "%d %d", a, b), 2)
	assert.Equal(t, a.Val+b.Val, int64(42))
}

func TestProcessErrors(t *testing.T) {
	skipWithoutShell(t)

	assert.ThrowsMessage(t, errors.IOError, "Could not open process: true", func() {
		NewProcess(object.S("true"), object.S("rw"))
	})

	p := NewProcess(object.S("exit 3"), object.S("r"))
	assert.ThrowsMessage(t, errors.IOError, "Failed to seek in process: illegal seek", func() {
		object.Seek(p, 0, io.SeekStart)
	})
	assert.ThrowsMessage(t, errors.IOError, "Failed to tell process: illegal seek", func() {
		object.Tell(p)
	})
	assert.ThrowsMessage(t, errors.IOError, "Failed to write to process: opened for reading", func() {
		object.Write(p, []byte("x"))
	})
	assert.ThrowsMessage(t, errors.IOError, "Failed to close process: exit status 3", func() {
		object.Close(p)
	})

	for msg, fn := range map[string]func(){
		"Cannot close process - no process open.": func() { object.Close(p) },
		"Cannot seek process - no process open.":  func() { object.Seek(p, 0, io.SeekStart) },
		"Cannot tell process - no process open.":  func() { object.Tell(p) },
		"Cannot flush process - no process open.": func() { object.Flush(p) },
		"Cannot eof process - no process open.":   func() { object.EOF(p) },
		"Cannot read process - no process open.":  func() { object.Read(p, make([]byte, 1)) },
		"Cannot write process - no process open.": func() { object.Write(p, []byte("x")) },
	} {
		assert.ThrowsMessage(t, errors.IOError, msg, fn)
	}
	object.Del(p)
}
