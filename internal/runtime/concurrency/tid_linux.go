//go:build linux

package concurrency

import "golang.org/x/sys/unix"

// osThreadID returns the kernel id of the calling OS thread.
func osThreadID() (int64, bool) {
	return int64(unix.Gettid()), true
}
