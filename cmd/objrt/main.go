// Package main provides the objrt command. It runs the runtime demos,
// dumps collector state, stresses threads and watches configuration files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/orizon-lang/objrt/internal/cli"
	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/runtime/concurrency"
)

const toolName = "objrt"

var commands = []cli.CommandInfo{
	{
		Name:        "demo",
		Usage:       "objrt demo [--config FILE]",
		Description: "Run the container, view and exception demos",
	},
	{
		Name:        "gc",
		Usage:       "objrt gc [--objects N] [--keep N] [--dump] [--json]",
		Description: "Allocate under the collector and report what survives",
		Flags: []cli.FlagInfo{
			{Name: "objects", Usage: "objects to allocate", Default: "1000"},
			{Name: "keep", Usage: "keep every Nth object reachable", Default: "10"},
			{Name: "dump", Usage: "print the collector table"},
			{Name: "json", Usage: "print statistics as JSON"},
		},
		Examples: []string{"objrt gc --objects 50 --dump"},
	},
	{
		Name:        "threads",
		Usage:       "objrt threads [--threads N] [--iterations N] [--limit N]",
		Description: "Run worker threads that share a mutex",
		Flags: []cli.FlagInfo{
			{Name: "threads", Usage: "worker threads to start", Default: "4"},
			{Name: "iterations", Usage: "increments per thread", Default: "1000"},
			{Name: "limit", Usage: "maximum threads running at once", Default: "0 (unlimited)"},
		},
	},
	{
		Name:        "watch",
		Usage:       "objrt watch --config FILE",
		Description: "Reload runtime switches whenever FILE changes",
		Examples:    []string{"objrt watch --config objrt.toml --verbose"},
	},
	{
		Name:        "help",
		Usage:       "objrt help [TYPE]",
		Description: "Show usage, or the documentation of a runtime type",
		Examples:    []string{"objrt help Table"},
	},
}

// options are the flags every subcommand accepts.
type options struct {
	configFile string
	verbose    bool
	debug      bool
	stackTrace bool
	fatalLog   string
}

func commonFlags(fs *flag.FlagSet) *options {
	o := &options{}
	fs.StringVar(&o.configFile, "config", "", "runtime switches file (.toml, .yaml, .json)")
	fs.BoolVar(&o.verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&o.debug, "debug", false, "enable debug output")
	fs.BoolVar(&o.stackTrace, "stack-trace", true, "print stack traces on fatal errors")
	fs.StringVar(&o.fatalLog, "fatal-log", "", "append fatal reports to this file")
	return o
}

// setup loads and applies the runtime switches and wires the logger into
// the runtime packages.
func setup(o *options) (*cli.Logger, error) {
	logger := cli.NewLogger(o.verbose, o.debug)

	s, err := config.Load(o.configFile)
	if err != nil {
		return logger, err
	}
	config.Apply(s)
	logger.Debug("switches: %+v", s)

	concurrency.SetLogger(logger)
	exception.SetExceptionHandler(&exception.AbortHandler{
		ShowStackTrace: o.stackTrace,
		LogToFile:      o.fatalLog != "",
		LogFile:        o.fatalLog,
	})
	return logger, nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	switch sub {
	case "help", "-h", "--help":
		if len(args) > 0 {
			describe(args[0])
			return
		}
		usage()
	case "version", "-v", "--version":
		jsonOutput := false
		for _, arg := range args {
			if arg == "--json" || arg == "-j" {
				jsonOutput = true
				break
			}
		}
		cli.PrintVersion(os.Stdout, toolName, jsonOutput)
	case "demo":
		must(runDemo(args))
	case "gc":
		must(runGC(args))
	case "threads":
		must(runThreads(args))
	case "watch":
		must(runWatch(args))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", sub)
		usage()
		os.Exit(2)
	}
}

func usage() {
	cli.PrintUsage(os.Stdout, toolName, commands)
}

// describe prints the documentation of a runtime type, or the usage of a
// subcommand with that name.
func describe(name string) {
	for _, c := range commands {
		if c.Name == name {
			cli.PrintCommandUsage(os.Stdout, toolName, c)
			return
		}
	}
	t, ok := object.Lookup(name)
	if !ok {
		cli.ExitWithError("no command or type named %q", name)
	}
	fmt.Println(object.Help(t))
}

func must(err error) {
	if err != nil {
		cli.HandleError(err, nil)
	}
}
