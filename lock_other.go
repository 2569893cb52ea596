//go:build !unix
// +build !unix

package main

import (
	"errors"
	"fmt"
	"os"
)

// acquireLock is the non-unix fallback: golang.org/x/sys/unix.Flock isn't
// available here, so exclusivity is approximated with a sibling marker file
// created exclusively. Best-effort, not a correctness guarantee (SPEC_FULL.md
// §3a/§5) — the caller is still expected to control access to path.
func acquireLock(path string) (func(), error) {
	lockPath := path + ".botox-lock"

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, &IOError{Op: "create lock file", Err: err}
	}
	f.Close()

	return func() {
		os.Remove(lockPath)
	}, nil
}
