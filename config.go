package main

import (
	"log"
	"os"

	"github.com/xyproto/env/v2"
)

// Config collects the knobs that affect how Infect lays out the injected
// segment and how much it logs. Flags passed on the command line win over
// the matching environment variable, which wins over the built-in default
// (SPEC_FULL.md §3a "Configuration").
type Config struct {
	PageSize int
	Verbose  bool
	Logger   *log.Logger
}

// defaultConfig reads BOTOX_PAGE_SIZE and BOTOX_VERBOSE from the
// environment, falling back to defaultPageSize and non-verbose logging.
func defaultConfig() Config {
	verbose := env.Bool("BOTOX_VERBOSE")
	pageSize := env.Int("BOTOX_PAGE_SIZE", defaultPageSize)

	logger := log.New(os.Stderr, "botox: ", 0)
	if !verbose {
		logger.SetOutput(discardWriter{})
	}

	return Config{
		PageSize: pageSize,
		Verbose:  verbose,
		Logger:   logger,
	}
}
