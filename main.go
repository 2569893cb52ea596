package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Exit codes, per SPEC_FULL.md §6.
const (
	exitSuccess = iota
	exitMalformedELF
	exitUnsupportedArchitecture
	exitIOFailure
	exitLocked
	exitOther
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("botox", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	output := fs.String("o", "", "write the infected binary to this path instead of overwriting in place")
	verbose := fs.Bool("v", cfg.Verbose, "log progress to stderr")
	pageSize := fs.Int("page-size", cfg.PageSize, "alignment, in bytes, for the injected segment")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-o output] [-v] [-page-size N] <path>\n", fs.Name())
	}
	if err := fs.Parse(args); err != nil {
		return exitOther
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return exitOther
	}
	path := fs.Arg(0)

	cfg.Verbose = *verbose
	cfg.PageSize = *pageSize
	logger := log.New(os.Stderr, "botox: ", 0)
	if !cfg.Verbose {
		logger.SetOutput(discardWriter{})
	}
	cfg.Logger = logger

	target := path
	if *output != "" {
		if err := copyFile(path, *output); err != nil {
			return exitCodeFor(err)
		}
		target = *output
	}

	if err := Infect(target, cfg); err != nil {
		return exitCodeFor(err)
	}
	return exitSuccess
}

// copyFile duplicates src to dst, preserving src's file mode, so that "-o"
// leaves the original input untouched and Infect operates only on dst
// (SPEC_FULL.md §6: "In-place by default; -o writes to a different path
// instead of overwriting").
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &IOError{Op: "stat", Err: err}
	}

	in, err := os.Open(src)
	if err != nil {
		return &IOError{Op: "open", Err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return &IOError{Op: "create", Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &IOError{Op: "copy", Err: err}
	}
	if err := out.Close(); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrMalformedELF):
		fmt.Fprintf(os.Stderr, "botox: %v\n", err)
		return exitMalformedELF
	case errors.Is(err, ErrUnsupportedArchitecture):
		fmt.Fprintf(os.Stderr, "botox: %v\n", err)
		return exitUnsupportedArchitecture
	case errors.Is(err, ErrLocked):
		fmt.Fprintf(os.Stderr, "botox: %v\n", err)
		return exitLocked
	default:
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			fmt.Fprintf(os.Stderr, "botox: %v\n", err)
			return exitIOFailure
		}
		fmt.Fprintf(os.Stderr, "botox: %v\n", err)
		return exitOther
	}
}
