//go:build !linux && !windows

package reactor

import "errors"

// setAffinityPlatform is a stub for platforms without a wired affinity
// syscall.
func setAffinityPlatform(cpuID int) error {
	return errors.New("reactor: cpu affinity not supported on this platform")
}
