//go:build !linux

package concurrency

// osThreadID has no portable implementation off Linux. Threads then take
// ids from a counter and Current falls back to the main thread.
func osThreadID() (int64, bool) {
	return 0, false
}
