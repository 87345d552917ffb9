//go:build !linux

package runner

func Supported() bool {
	return false
}
