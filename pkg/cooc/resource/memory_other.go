//go:build !linux

package resource

func hostMemory() int64 {
	return 0
}
