//go:build linux

package runner

import "golang.org/x/sys/unix"

// Supported reports whether executables produced by the compiler can
// run on this machine.
func Supported() bool {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return false
	}
	return unix.ByteSliceToString(u.Machine[:]) == "x86_64"
}
