package network

import (
	"time"

	"github.com/machina-vm/machina/pkg/logger"
	"github.com/machina-vm/machina/pkg/platform"
)

// releaser runs the dhcp_release helper to tell the daemon one lease
// should be dropped before its natural expiry. Outcomes are reported only
// through the log; callers never see a failure.
type releaser struct {
	platform   platform.Platform
	helperPath string
	timeout    time.Duration
	log        *logger.Logger
}

func newReleaser(p platform.Platform, helperPath string, timeout time.Duration, log *logger.Logger) *releaser {
	return &releaser{
		platform:   p,
		helperPath: helperPath,
		timeout:    timeout,
		log:        log,
	}
}

// release invokes the helper with positional arguments (bridge, ip, mac)
// and waits for it to finish, bounded by the configured timeout. A helper
// stuck past the timeout is killed rather than waited on forever.
func (r *releaser) release(bridge, ip, hwAddr string) {
	cmd := r.platform.CreateCommand(r.helperPath, bridge, ip, hwAddr)

	if err := cmd.Start(); err != nil {
		r.log.Warn("failed to release ip addr", "ip", ip, "mac", hwAddr, "error", err)
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			st := exitStateFrom(err)
			r.log.Warn("failed to release ip addr", "ip", ip, "mac", hwAddr, "exitCode", st.Code)
		}
	case <-time.After(r.timeout):
		cmd.Kill()
		r.log.Warn("timed out releasing ip addr", "ip", ip, "mac", hwAddr, "timeout", r.timeout)
	}
}
