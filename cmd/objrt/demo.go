package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/format"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/runtime/concurrency"
	"github.com/orizon-lang/objrt/internal/stdlib/collections"
	"github.com/orizon-lang/objrt/internal/stdlib/streams"
	"github.com/orizon-lang/objrt/internal/stdlib/views"
)

func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	opts := commonFlags(fs)
	_ = fs.Parse(args)

	logger, err := setup(opts)
	if err != nil {
		return err
	}

	exc := concurrency.Main().Exceptions()
	uninstall := exception.InstallSignals(exc)
	defer uninstall()

	logger.Info("running demos")
	return exc.Try(func() { demo(os.Stdout, exc) })
}

func demo(w io.Writer, exc *exception.State) {
	section(w, "Array")
	a := collections.NewArray(object.IntType)
	defer object.Del(a)
	object.Push(a, object.I(32))
	object.Push(a, object.I(6))
	format.Fprintf(w, "%$ has %i items\n", a, object.I(int64(object.Len(a))))

	section(w, "Table")
	prices := collections.NewTable(object.StringType, object.IntType,
		object.S("Apple"), object.I(12),
		object.S("Banana"), object.I(6),
		object.S("Pear"), object.I(55))
	defer object.Del(prices)
	format.Fprintf(w, "Pear costs %i\n", object.Get(prices, object.S("Pear")))
	object.Rem(prices, object.S("Apple"))
	err := exc.TryCatch(func() {
		object.Get(prices, object.S("Apple"))
	}, errors.KeyError)
	fmt.Fprintf(w, "caught %v\n", err)

	section(w, "Range")
	for i := range object.All(views.RangeOf(object.I(10), object.I(20), object.I(-1))) {
		format.Fprintf(w, "%i ", i)
	}
	fmt.Fprintln(w)

	section(w, "Tree")
	tree := collections.NewTree(object.IntType, object.IntType,
		object.I(5), object.I(50), object.I(1), object.I(10), object.I(8), object.I(80),
		object.I(3), object.I(30), object.I(4), object.I(40))
	defer object.Del(tree)
	format.Fprintf(w, "%$\n", tree)

	section(w, "Views")
	words := collections.NewList(object.StringType, object.S("zero"), object.S("one"), object.S("two"), object.S("three"))
	defer object.Del(words)
	long := views.FilterOf(words, func(s object.Object) bool { return len(object.CStr(s)) > 3 })
	for pair := range object.All(views.EnumerateOf(long)) {
		format.Fprintf(w, "%$\n", pair)
	}
	lengths := views.MapOf(words, func(s object.Object) object.Object {
		return object.NewInt(int64(len(object.CStr(s))))
	})
	sizes := collections.NewArray(object.RefType)
	defer object.Del(sizes)
	object.Assign(sizes, lengths)
	format.Fprintf(w, "lengths %$ reversed %$\n", sizes, views.Reversed(sizes))
	for item := range object.All(sizes) {
		object.Del(object.Deref(item))
	}

	section(w, "File")
	dir, err := os.MkdirTemp("", "objrt-demo")
	if err != nil {
		exception.Throw(errors.IOError, "Could not create demo directory: %v", err)
	}
	defer os.RemoveAll(dir)
	path := object.S(filepath.Join(dir, "people.txt"))
	f := streams.NewFile(path, object.S("w"))
	defer object.Del(f)
	format.PrintTo(f, "%$ is %$ ", object.S("Dan"), object.I(23))
	format.PrintTo(f, "%$ is %$ ", object.S("Chess"), object.I(24))
	object.Open(f, path, object.S("r"))
	name, age := object.NewString(""), object.NewInt(0)
	defer object.Del(name)
	defer object.Del(age)
	for format.ScanFrom(f, "%$ is %$ ", name, age) == 2 {
		format.Fprintf(w, "%s is %i\n", name, age)
	}

	section(w, "Format")
	var n object.Int
	object.InitHeader(&n, object.IntType, object.AllocStack)
	matched := format.Sscanf("answer=42", "answer=%i", &n)
	format.Fprintf(w, "scanned %i value(s): %5i|%-5i|%x\n", object.I(int64(matched)), &n, &n, &n)
}

func section(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
}
