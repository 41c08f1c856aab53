// Package format renders objects through printf-style format strings and
// parses them back.
//
// Directives follow the C layout %[flags][width][.precision][length]verb.
// Width and precision may be '*' to take them from the next argument. The
// integer verbs d i u o x X c convert through C_Int, the float verbs
// f F e E g G a A through C_Float, s through C_Str and p prints the object
// address. The extra verb $ renders an argument with its Show instance.
package format

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

const (
	flagChars   = "-+ #0"
	lengthChars = "hlLqjzt"
)

// directive is one parsed conversion.
type directive struct {
	flags     string
	width     int
	hasWidth  bool
	prec      int
	hasPrec   bool
	verb      byte
	consumed  int
	starWidth bool
	starPrec  bool
}

// parseDirective parses the directive at s, which starts just after '%'.
func parseDirective(s string) directive {
	var d directive
	i := 0
	for i < len(s) && strings.IndexByte(flagChars, s[i]) >= 0 {
		i++
	}
	d.flags = s[:i]

	if i < len(s) && s[i] == '*' {
		d.starWidth, d.hasWidth = true, true
		i++
	} else {
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i > start {
			d.width, _ = strconv.Atoi(s[start:i])
			d.hasWidth = true
		}
	}

	if i < len(s) && s[i] == '.' {
		i++
		d.hasPrec = true
		if i < len(s) && s[i] == '*' {
			d.starPrec = true
			i++
		} else {
			start := i
			for i < len(s) && isDigit(s[i]) {
				i++
			}
			d.prec, _ = strconv.Atoi(s[start:i])
		}
	}

	for i < len(s) && strings.IndexByte(lengthChars, s[i]) >= 0 {
		i++
	}
	if i >= len(s) {
		exception.Throw(errors.FormatError, "Invalid Format String!")
	}
	d.verb = s[i]
	d.consumed = i + 1
	return d
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// goFormat rebuilds the directive for package fmt with the given verb.
func (d directive) goFormat(verb byte) string {
	var b strings.Builder
	b.WriteByte('%')
	b.WriteString(d.flags)
	if d.hasWidth {
		b.WriteString(strconv.Itoa(d.width))
	}
	if d.hasPrec {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(d.prec))
	}
	b.WriteByte(verb)
	return b.String()
}

type argList struct {
	args []object.Object
	next int
}

func (a *argList) pop() object.Object {
	if a.next >= len(a.args) {
		exception.Throw(errors.FormatError, "Not enough arguments to Format String!")
	}
	obj := a.args[a.next]
	a.next++
	return obj
}

// Append formats args according to format and appends the result to b.
func Append(b *strings.Builder, format string, args ...object.Object) {
	list := &argList{args: args}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			exception.Throw(errors.FormatError, "Invalid Format String!")
		}
		if format[i+1] == '%' {
			b.WriteByte('%')
			i++
			continue
		}

		d := parseDirective(format[i+1:])
		i += d.consumed

		if d.starWidth {
			d.width = int(object.CInt(list.pop()))
			if d.width < 0 {
				d.width = -d.width
				d.flags += "-"
			}
		}
		if d.starPrec {
			d.prec = int(object.CInt(list.pop()))
			if d.prec < 0 {
				d.hasPrec = false
			}
		}

		formatOne(b, d, list.pop())
	}
}

func formatOne(b *strings.Builder, d directive, arg object.Object) {
	switch d.verb {
	case 'd', 'i':
		fmt.Fprintf(b, d.goFormat('d'), object.CInt(arg))
	case 'u':
		fmt.Fprintf(b, d.goFormat('d'), uint64(object.CInt(arg)))
	case 'o', 'x', 'X':
		fmt.Fprintf(b, d.goFormat(d.verb), uint64(object.CInt(arg)))
	case 'c':
		fmt.Fprintf(b, d.goFormat('c'), rune(object.CInt(arg)))
	case 'f', 'F', 'e', 'E', 'g', 'G':
		fmt.Fprintf(b, d.goFormat(d.verb), object.CFloat(arg))
	case 'a':
		fmt.Fprintf(b, d.goFormat('x'), object.CFloat(arg))
	case 'A':
		fmt.Fprintf(b, d.goFormat('X'), object.CFloat(arg))
	case 's':
		fmt.Fprintf(b, d.goFormat('s'), object.CStr(arg))
	case 'p':
		fmt.Fprintf(b, d.goFormat('p'), arg)
	case '$':
		fmt.Fprintf(b, d.goFormat('s'), object.Show(arg))
	default:
		exception.Throw(errors.FormatError, "Invalid Format String!")
	}
}

// Sprintf formats args according to format.
func Sprintf(format string, args ...object.Object) string {
	var b strings.Builder
	Append(&b, format, args...)
	return b.String()
}

// Fprintf formats args according to format and writes the result to w.
func Fprintf(w io.Writer, format string, args ...object.Object) (int, error) {
	n, err := fprintf(w, format, args)
	if err != nil {
		return n, err
	}
	return n, nil
}

// PrintTo formats args into the Stream object s and returns the number of
// bytes written, throwing an IOError when s cannot be written.
func PrintTo(s object.Object, format string, args ...object.Object) int {
	w, ok := s.(io.Writer)
	if !ok {
		w = object.IO(s)
	}
	n, err := fprintf(w, format, args)
	if err != nil {
		exception.Raise(err)
	}
	return n
}

func fprintf(w io.Writer, format string, args []object.Object) (int, *errors.Error) {
	n, err := io.WriteString(w, Sprintf(format, args...))
	if err != nil {
		return n, ioError("Failed to write formatted output", err)
	}
	return n, nil
}

// ioError keeps IOErrors raised by the stream itself and wraps anything
// else.
func ioError(msg string, err error) *errors.Error {
	if e, ok := err.(*errors.Error); ok && e.Kind == errors.IOError {
		return e
	}
	return errors.Newf(errors.IOError, "%s: %v", msg, err)
}

// Printf formats args according to format and writes the result to stdout.
func Printf(format string, args ...object.Object) (int, error) {
	return Fprintf(os.Stdout, format, args...)
}

// Println writes each object's rendering to stdout followed by a newline.
func Println(objs ...object.Object) (int, error) {
	parts := make([]string, len(objs))
	for i, o := range objs {
		parts[i] = object.Show(o)
	}
	return io.WriteString(os.Stdout, strings.Join(parts, " ")+"\n")
}
