//go:build unix

package observ

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func residentPeak() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil || ru.Maxrss <= 0 {
		return 0
	}
	peak := uint64(ru.Maxrss)
	// darwin reports bytes, the other unixes kilobytes
	if runtime.GOOS != "darwin" && runtime.GOOS != "ios" {
		peak *= 1024
	}
	return peak
}
