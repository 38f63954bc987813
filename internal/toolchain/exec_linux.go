//go:build linux

package toolchain

import "golang.org/x/sys/unix"

// executable 当前用户是否可以执行 path
func executable(path string) bool {
	return unix.Access(path, unix.X_OK) == nil
}
