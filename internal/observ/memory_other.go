//go:build !unix

package observ

import "runtime"

// residentPeak falls back to the memory obtained from the OS by the Go runtime.
func residentPeak() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}
