package dirqueue

import "golang.org/x/sys/unix"

// processUmask reads the current process umask without altering it
// permanently: unix.Umask always both sets and returns the previous
// value, so the only way to observe it is to set a throwaway value and
// immediately restore it.
func processUmask() uint32 {
	old := unix.Umask(0)
	unix.Umask(old)
	return uint32(old)
}

// withUmask temporarily installs mask as the process umask for the
// duration of fn, unconditionally restoring the previous value on every
// exit path (including panics propagating through fn).
func withUmask(mask uint32, fn func() error) error {
	old := unix.Umask(int(mask))
	defer unix.Umask(old)
	return fn()
}
