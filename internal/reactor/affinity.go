package reactor

import (
	"sync/atomic"

	"github.com/lmshao/network/internal/netlog"
)

// pinnedCPU holds the CPU the reactor's loop goroutine should pin itself
// to, or -1 if unset. It is read once, at the top of loop(), right after
// the goroutine's OS thread is locked with runtime.LockOSThread.
var pinnedCPU atomic.Int64

func init() {
	pinnedCPU.Store(-1)
}

// SetAffinity requests that the reactor's background loop goroutine pin
// itself to cpuID. It only takes effect if called before the reactor's
// loop goroutine starts (i.e. before the first Get()); the loop reads it
// once at startup. Pinning reduces cache-line migration for the
// hot dispatch path at the cost of losing the scheduler's freedom to
// move the goroutine off a busy core.
func SetAffinity(cpuID int) {
	pinnedCPU.Store(int64(cpuID))
}

func applyPinnedAffinity() {
	cpu := pinnedCPU.Load()
	if cpu < 0 {
		return
	}
	if err := setAffinityPlatform(int(cpu)); err != nil {
		netlog.Warnf("reactor: pin loop goroutine to cpu %d: %v", cpu, err)
	}
}
