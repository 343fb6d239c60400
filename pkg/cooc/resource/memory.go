package resource

import (
	"math"
	"runtime/debug"
)

// DefaultMemory is used when neither a Go memory limit nor the host memory
// can be determined.
const DefaultMemory int64 = 1 << 30

// AvailableMemory returns the memory a run may plan for: the Go runtime soft
// limit when one is set (GOMEMLIMIT), otherwise total host memory.
func AvailableMemory() int64 {
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit != math.MaxInt64 {
		return limit
	}
	if total := hostMemory(); total > 0 {
		return total
	}
	return DefaultMemory
}
