package network

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/machina-vm/machina/pkg/platform"
)

// exitState captures how the daemon process ended
type exitState struct {
	Code int
	Err  error
}

// failureMessage returns exit detail suitable for appending to a log line
// or error, empty for a clean exit.
func (s exitState) failureMessage() string {
	if s.Err == nil {
		return ""
	}
	if s.Code >= 0 {
		return fmt.Sprintf("exited with code %d", s.Code)
	}
	return s.Err.Error()
}

// daemonProcess is the handle over one running dnsmasq process. exited is
// closed by the wait goroutine once the process is gone for any reason;
// after that state holds the exit detail. Multiple readers may block on
// exited concurrently.
type daemonProcess struct {
	platform platform.Platform
	cmd      platform.Command
	pid      int
	stderr   *bytes.Buffer

	exited chan struct{}
	state  exitState
}

// startDaemonProcess spawns the daemon in its own process group and watches
// it for the duration of startTimeout. A process that dies inside that
// window is treated as a failed start and its captured stderr is folded
// into the returned error.
func startDaemonProcess(p platform.Platform, path string, args []string, startTimeout time.Duration) (*daemonProcess, error) {
	cmd := p.CreateCommand(path, args...)
	cmd.SetSysProcAttr(p.CreateProcessGroup())

	stderr := &bytes.Buffer{}
	cmd.SetStderr(stderr)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}

	proc := cmd.Process()
	if proc == nil {
		cmd.Kill()
		return nil, fmt.Errorf("no process handle after starting %s", path)
	}

	d := &daemonProcess{
		platform: p,
		cmd:      cmd,
		pid:      proc.Pid(),
		stderr:   stderr,
		exited:   make(chan struct{}),
	}

	go func() {
		d.state = exitStateFrom(cmd.Wait())
		close(d.exited)
	}()

	select {
	case <-d.exited:
		// Died before it could settle. Make sure nothing lingers, then
		// report the failure with whatever the daemon had to say.
		cmd.Kill()
		msg := d.state.failureMessage()
		if msg == "" {
			msg = "exited during startup"
		}
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, detail)
		}
		return nil, fmt.Errorf("daemon %s", msg)
	case <-time.After(startTimeout):
		return d, nil
	}
}

// running reports whether the process is still alive. Signal 0 probes
// existence without affecting the target.
func (d *daemonProcess) running() bool {
	select {
	case <-d.exited:
		return false
	default:
	}

	err := d.platform.Kill(d.pid, 0)
	if err == nil {
		return true
	}
	if errors.Is(err, syscall.EPERM) {
		return true
	}
	return false
}

// terminate requests a graceful exit via SIGTERM to the process group
func (d *daemonProcess) terminate() error {
	if err := d.platform.Kill(-d.pid, syscall.SIGTERM); err != nil {
		return d.platform.Kill(d.pid, syscall.SIGTERM)
	}
	return nil
}

// kill force-kills the process group
func (d *daemonProcess) kill() error {
	if err := d.platform.Kill(-d.pid, syscall.SIGKILL); err != nil {
		return d.platform.Kill(d.pid, syscall.SIGKILL)
	}
	return nil
}

// waitExit blocks until the process exits or the timeout elapses.
// Returns the exit state and whether the process actually exited.
func (d *daemonProcess) waitExit(timeout time.Duration) (exitState, bool) {
	select {
	case <-d.exited:
		return d.state, true
	case <-time.After(timeout):
		return exitState{}, false
	}
}

// exitStateFrom maps a Wait error onto an exit state. Anything that can
// report an exit code is honored; other failures carry code -1.
func exitStateFrom(err error) exitState {
	if err == nil {
		return exitState{Code: 0}
	}

	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return exitState{Code: coder.ExitCode(), Err: err}
	}

	return exitState{Code: -1, Err: err}
}
