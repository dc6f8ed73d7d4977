// Package network owns the guest-network DHCP/DNS service: it starts and
// supervises one dnsmasq instance bound to one host bridge, answers
// MAC-to-IP lease lookups from the daemon's lease database and brokers
// explicit lease releases through the dhcp_release helper.
package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/machina-vm/machina/pkg/errors"
	"github.com/machina-vm/machina/pkg/logger"
	"github.com/machina-vm/machina/pkg/platform"
)

// State is the daemon process state as tracked by the supervisor
type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateRunning
	StateExited
	StateFailed
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// dnsmasq exits with code 2 when it cannot bind its sockets. That is the
// only exit code the daemon contract gives a documented meaning we act on.
const exitCodePortInUse = 2

// Options configures daemon and helper invocation
type Options struct {
	DnsmasqPath     string
	DHCPReleasePath string
	LeaseTime       string

	StartTimeout   time.Duration
	StopTimeout    time.Duration
	KillTimeout    time.Duration
	ReleaseTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.DnsmasqPath == "" {
		o.DnsmasqPath = "dnsmasq"
	}
	if o.DHCPReleasePath == "" {
		o.DHCPReleasePath = "dhcp_release"
	}
	if o.StartTimeout <= 0 {
		o.StartTimeout = 500 * time.Millisecond
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 1 * time.Second
	}
	if o.KillTimeout <= 0 {
		o.KillTimeout = 100 * time.Millisecond
	}
	if o.ReleaseTimeout <= 0 {
		o.ReleaseTimeout = 5 * time.Second
	}
}

// Server supervises the dnsmasq daemon serving one bridge/subnet pair.
// All state transitions happen behind mu, so the exit watcher and an
// explicit health check can never race each other into a double restart.
type Server struct {
	platform platform.Platform
	log      *logger.Logger
	cfg      *ServiceConfig
	opts     Options
	releaser *releaser

	mu          sync.Mutex
	proc        *daemonProcess
	watchCancel chan struct{}
	state       State
}

// NewServer materializes the daemon configuration under dataDir and starts
// dnsmasq. It blocks until the daemon survives the start window or fails;
// a start failure kills any partially-started process and is returned to
// the caller, since without DHCP/DNS the guests get no usable network.
func NewServer(p platform.Platform, dataDir, bridgeName, subnet string, opts Options) (*Server, error) {
	opts.applyDefaults()

	sn, err := ParseSubnet(subnet)
	if err != nil {
		return nil, errors.NewNetworkError(bridgeName, "configure", err)
	}

	cfg, err := newServiceConfig(p, dataDir, bridgeName, sn, opts.LeaseTime)
	if err != nil {
		return nil, errors.NewNetworkError(bridgeName, "configure", err)
	}

	log := logger.WithField("component", "dnsmasq")
	s := &Server{
		platform: p,
		log:      log,
		cfg:      cfg,
		opts:     opts,
		releaser: newReleaser(p, opts.DHCPReleasePath, opts.ReleaseTimeout, log),
		state:    StateNotStarted,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.startDaemonLocked(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config exposes the immutable per-instance service configuration
func (s *Server) Config() *ServiceConfig {
	return s.cfg
}

// State returns the current daemon process state
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// startDaemonLocked spawns dnsmasq and registers the exit watcher.
// Callers must hold mu.
func (s *Server) startDaemonLocked() error {
	s.state = StateStarting
	s.log.Debug("starting dnsmasq", "bridge", s.cfg.BridgeName, "subnet", s.cfg.Subnet.String())

	args := []string{"--keep-in-foreground", "--conf-file=" + s.cfg.ConfPath}
	proc, err := startDaemonProcess(s.platform, s.opts.DnsmasqPath, args, s.opts.StartTimeout)
	if err != nil {
		s.state = StateFailed
		return errors.NewNetworkError(s.cfg.BridgeName, "start",
			fmt.Errorf("%w: %v", errors.ErrDaemonStartFailed, err))
	}

	cancel := make(chan struct{})
	s.proc = proc
	s.watchCancel = cancel
	s.state = StateRunning
	go s.watch(proc, cancel)

	return nil
}

// watch logs an unsolicited daemon exit. It deliberately never restarts;
// restart is driven only by CheckRunning so the two triggers cannot race.
func (s *Server) watch(proc *daemonProcess, cancel chan struct{}) {
	select {
	case <-cancel:
		return
	case <-proc.exited:
	}

	// A teardown that fired between the exit and this point wins.
	select {
	case <-cancel:
		return
	default:
	}

	s.mu.Lock()
	if s.proc == proc && s.state == StateRunning {
		s.state = StateExited
	}
	s.mu.Unlock()

	msg := "died"
	if detail := proc.state.failureMessage(); detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	if proc.state.Code == exitCodePortInUse {
		msg += ". Ensure nothing is using port 53."
	}
	s.log.Error(msg)
}

// CheckRunning verifies the daemon is alive and restarts it if not. It is
// the single self-healing path; callers invoke it periodically or before
// network-critical operations.
func (s *Server) CheckRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopping || s.state == StateStopped {
		return nil
	}

	if s.proc != nil && s.proc.running() {
		return nil
	}

	s.log.Warn("Not running")
	s.cancelWatchLocked()
	return s.startDaemonLocked()
}

// IPForMAC reads the lease database and returns the IP of the first record
// matching the hardware address, in file order. A missing or torn lease
// file simply yields no match; callers needing certainty must retry.
func (s *Server) IPForMAC(hwAddr string) (string, bool) {
	for _, record := range readLeases(s.platform, s.cfg.LeasePath) {
		if record.HWAddr == hwAddr {
			return record.IP, true
		}
	}
	return "", false
}

// Leases returns every record currently in the lease database
func (s *Server) Leases() []LeaseRecord {
	return readLeases(s.platform, s.cfg.LeasePath)
}

// ReleaseMAC drops the lease held by the given hardware address. An
// address with no current lease is treated as already released. The
// operation never signals failure to its caller; problems go to the log.
func (s *Server) ReleaseMAC(hwAddr string) {
	ip, ok := s.IPForMAC(hwAddr)
	if !ok {
		s.log.Warn("attempting to release non-existent addr", "mac", hwAddr)
		return
	}

	s.releaser.release(s.cfg.BridgeName, ip, hwAddr)
}

// Stop tears the daemon down: the exit watcher is deregistered first so a
// logged "died" cannot race the shutdown, then SIGTERM with a bounded
// wait, then SIGKILL with a shorter one. A daemon that survives both is
// abandoned to the OS.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return
	}

	s.cancelWatchLocked()
	s.log.Debug("terminating")

	proc := s.proc
	if proc == nil || !proc.running() {
		s.state = StateStopped
		return
	}

	s.state = StateStopping

	if err := proc.terminate(); err != nil {
		s.log.Warn("failed to signal dnsmasq", "error", err)
	}
	if _, exited := proc.waitExit(s.opts.StopTimeout); !exited {
		s.log.Info("failed to terminate nicely, killing")

		if err := proc.kill(); err != nil {
			s.log.Warn("failed to signal dnsmasq", "error", err)
		}
		if _, exited := proc.waitExit(s.opts.KillTimeout); !exited {
			s.log.Warn("failed to kill")
		}
	}

	s.state = StateStopped
}

// cancelWatchLocked deregisters the unsolicited-exit watcher.
// Callers must hold mu.
func (s *Server) cancelWatchLocked() {
	if s.watchCancel != nil {
		close(s.watchCancel)
		s.watchCancel = nil
	}
}
