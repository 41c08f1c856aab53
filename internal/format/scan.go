package format

import (
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Sscanf parses input according to format, assigning each converted value
// into the next argument. It returns the number of arguments assigned and
// stops at the first mismatch.
func Sscanf(input, format string, args ...object.Object) int {
	assigned, _ := scan(input, format, args)
	return assigned
}

// Fscanf reads from r and parses it like Sscanf. When r can seek it is
// left just after the consumed input; otherwise it is read to the end.
func Fscanf(r io.Reader, format string, args ...object.Object) (int, error) {
	n, err := fscanf(r, format, args)
	if err != nil {
		return n, err
	}
	return n, nil
}

// ScanFrom parses input from the Stream object s like Sscanf, throwing an
// IOError when s cannot be read.
func ScanFrom(s object.Object, format string, args ...object.Object) int {
	r, ok := s.(io.Reader)
	if !ok {
		r = object.IO(s)
	}
	n, err := fscanf(r, format, args)
	if err != nil {
		exception.Raise(err)
	}
	return n
}

func fscanf(r io.Reader, format string, args []object.Object) (int, *errors.Error) {
	seeker, _ := r.(io.Seeker)
	var start int64
	if seeker != nil {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			seeker = nil
		}
		start = pos
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, ioError("Failed to read formatted input", err)
	}
	assigned, used := scan(string(data), format, args)
	if seeker != nil {
		if _, err := seeker.Seek(start+int64(used), io.SeekStart); err != nil {
			return assigned, ioError("Failed to read formatted input", err)
		}
	}
	return assigned, nil
}

// scan is Sscanf that also returns the number of input bytes consumed.
func scan(input, format string, args []object.Object) (assigned, pos int) {
	list := &argList{args: args}

	for i := 0; i < len(format); i++ {
		c := format[i]

		switch {
		case isSpace(c):
			pos = skipSpace(input, pos)
			continue
		case c != '%':
			if pos >= len(input) || input[pos] != c {
				return assigned, pos
			}
			pos++
			continue
		}

		if i+1 >= len(format) {
			exception.Throw(errors.FormatError, "Invalid Format String!")
		}
		if format[i+1] == '%' {
			pos = skipSpace(input, pos)
			if pos >= len(input) || input[pos] != '%' {
				return assigned, pos
			}
			pos++
			i++
			continue
		}

		d := parseDirective(format[i+1:])
		i += d.consumed
		if d.starPrec || d.hasPrec {
			exception.Throw(errors.FormatError, "Invalid Format String!")
		}

		// '*' suppresses assignment when scanning.
		suppress := d.starWidth
		if d.verb != 'c' {
			pos = skipSpace(input, pos)
		}
		rest := input[pos:]
		if d.hasWidth && !d.starWidth && d.width < len(rest) {
			rest = rest[:d.width]
		}
		if rest == "" {
			return assigned, pos
		}

		var target object.Object
		if !suppress {
			target = list.pop()
		}

		n := scanOne(d.verb, rest, target)
		if n == 0 {
			return assigned, pos
		}
		pos += n
		if !suppress {
			assigned++
		}
	}
	return assigned, pos
}

// scanOne converts the prefix of s and assigns it into target when target is
// non-nil. It returns the number of bytes consumed, zero on mismatch.
func scanOne(verb byte, s string, target object.Object) int {
	assign := func(v object.Object) {
		if target != nil {
			object.Assign(target, v)
		}
	}

	switch verb {
	case 'd', 'i', 'u':
		n := scanDigits(s, true, 10)
		v, err := strconv.ParseInt(s[:n], 10, 64)
		if n == 0 || err != nil {
			return 0
		}
		assign(object.I(v))
		return n
	case 'o', 'x', 'X':
		base := 16
		if verb == 'o' {
			base = 8
		}
		body := s
		prefix := 0
		if base == 16 && len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			body, prefix = s[2:], 2
		}
		n := scanDigits(body, false, base)
		v, err := strconv.ParseUint(body[:n], base, 64)
		if n == 0 || err != nil {
			return 0
		}
		assign(object.I(int64(v)))
		return prefix + n
	case 'c':
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size <= 1 {
			return 0
		}
		assign(object.I(int64(r)))
		return size
	case 'f', 'F', 'e', 'E', 'g', 'G', 'a', 'A':
		for n := len(s) - len(strings.TrimLeft(s, "+-0123456789.eExXpP")); n > 0; n-- {
			if v, err := strconv.ParseFloat(s[:n], 64); err == nil {
				assign(object.F(v))
				return n
			}
		}
		return 0
	case 's':
		n := strings.IndexFunc(s, unicode.IsSpace)
		if n < 0 {
			n = len(s)
		}
		assign(object.S(s[:n]))
		return n
	case '$':
		if target == nil {
			exception.Throw(errors.FormatError, "Invalid Format String!")
		}
		return object.Look(target, s)
	default:
		exception.Throw(errors.FormatError, "Invalid Format String!")
		return 0
	}
}

func scanDigits(s string, signed bool, base int) int {
	i := 0
	if signed && i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	for i < len(s) && digitValue(s[i]) < base {
		i++
	}
	if i == start {
		return 0
	}
	return i
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 99
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}
