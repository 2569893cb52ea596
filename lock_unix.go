//go:build unix
// +build unix

package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// acquireLock takes an advisory exclusive lock on path for the duration of
// an infect operation. The source assumes the caller controls access
// (SPEC_FULL.md §5); this adds a belt-and-suspenders flock so two concurrent
// invocations against the same file fail loudly instead of corrupting it.
// The returned func releases the lock and closes the lock's file descriptor.
func acquireLock(path string) (func(), error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, &IOError{Op: "open for lock", Err: err}
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		if err == unix.EWOULDBLOCK {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, &IOError{Op: "flock", Err: err}
	}

	return func() {
		unix.Flock(fd, unix.LOCK_UN)
		unix.Close(fd)
	}, nil
}
