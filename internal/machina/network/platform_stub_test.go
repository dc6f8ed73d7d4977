package network

import (
	"fmt"
	"io"
	"sync"
	"syscall"

	"github.com/machina-vm/machina/pkg/platform"
)

// stubPlatform embeds the real platform for file operations (tests point
// everything at t.TempDir) and replaces process control with an in-memory
// process table, so daemon start/crash/kill scenarios are deterministic.
type stubPlatform struct {
	platform.Platform

	mu       sync.Mutex
	nextPID  int
	procs    map[int]*stubCommand
	commands []*stubCommand

	startErr   error          // injected Start failure for the next command
	autoFinish map[string]int // command name -> exit code immediately after Start
	ignoreTerm bool           // simulated daemon ignores SIGTERM
	ignoreKill bool           // simulated daemon survives SIGKILL too
}

func newStubPlatform() *stubPlatform {
	return &stubPlatform{
		Platform:   platform.NewPlatform(),
		nextPID:    1000,
		procs:      make(map[int]*stubCommand),
		autoFinish: make(map[string]int),
	}
}

func (sp *stubPlatform) CreateCommand(name string, args ...string) platform.Command {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	cmd := &stubCommand{
		plat:   sp,
		name:   name,
		args:   args,
		waitCh: make(chan struct{}),
	}
	sp.commands = append(sp.commands, cmd)
	return cmd
}

func (sp *stubPlatform) Kill(pid int, sig syscall.Signal) error {
	target := pid
	if target < 0 {
		target = -target
	}

	sp.mu.Lock()
	cmd, ok := sp.procs[target]
	ignoreTerm, ignoreKill := sp.ignoreTerm, sp.ignoreKill
	sp.mu.Unlock()

	if !ok {
		return syscall.ESRCH
	}

	switch sig {
	case 0:
		return nil
	case syscall.SIGTERM:
		cmd.countSignal(sig)
		if !ignoreTerm {
			cmd.finish(0, nil)
		}
	case syscall.SIGKILL:
		cmd.countSignal(sig)
		if !ignoreKill {
			cmd.finish(-1, &stubExitError{code: -1})
		}
	}
	return nil
}

// commandsNamed returns every started command with the given executable
func (sp *stubPlatform) commandsNamed(name string) []*stubCommand {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	var out []*stubCommand
	for _, cmd := range sp.commands {
		if cmd.name == name && cmd.started {
			out = append(out, cmd)
		}
	}
	return out
}

// crash ends the process with the given exit code, as if it died on its own
func (sp *stubPlatform) crash(pid int, code int) {
	sp.mu.Lock()
	cmd, ok := sp.procs[pid]
	sp.mu.Unlock()
	if ok {
		cmd.finish(code, &stubExitError{code: code})
	}
}

type stubCommand struct {
	plat *stubPlatform
	name string
	args []string

	mu       sync.Mutex
	pid      int
	started  bool
	finished bool
	waitErr  error
	waitCh   chan struct{}
	sigterms int
	sigkills int
}

func (c *stubCommand) Start() error {
	c.plat.mu.Lock()
	if err := c.plat.startErr; err != nil {
		c.plat.startErr = nil
		c.plat.mu.Unlock()
		return err
	}
	c.plat.nextPID++
	pid := c.plat.nextPID
	c.plat.procs[pid] = c
	code, auto := c.plat.autoFinish[c.name]
	c.plat.mu.Unlock()

	c.mu.Lock()
	c.pid = pid
	c.started = true
	c.mu.Unlock()

	if auto {
		var err error
		if code != 0 {
			err = &stubExitError{code: code}
		}
		c.finish(code, err)
	}
	return nil
}

func (c *stubCommand) Wait() error {
	<-c.waitCh
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitErr
}

func (c *stubCommand) Run() error {
	if err := c.Start(); err != nil {
		return err
	}
	return c.Wait()
}

func (c *stubCommand) Process() platform.Process {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	return &stubProcess{cmd: c}
}

func (c *stubCommand) Kill() {
	c.finish(-1, &stubExitError{code: -1})
}

func (c *stubCommand) SetStdout(w io.Writer) {}

func (c *stubCommand) SetStderr(w io.Writer) {}

func (c *stubCommand) SetEnv(env []string) {}

func (c *stubCommand) SetDir(dir string) {}

func (c *stubCommand) SetSysProcAttr(attr *syscall.SysProcAttr) {}

func (c *stubCommand) countSignal(sig syscall.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch sig {
	case syscall.SIGTERM:
		c.sigterms++
	case syscall.SIGKILL:
		c.sigkills++
	}
}

func (c *stubCommand) finish(code int, err error) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	c.waitErr = err
	pid := c.pid
	close(c.waitCh)
	c.mu.Unlock()

	c.plat.mu.Lock()
	delete(c.plat.procs, pid)
	c.plat.mu.Unlock()
}

type stubProcess struct {
	cmd *stubCommand
}

func (p *stubProcess) Pid() int {
	p.cmd.mu.Lock()
	defer p.cmd.mu.Unlock()
	return p.cmd.pid
}

func (p *stubProcess) Kill() error {
	p.cmd.finish(-1, &stubExitError{code: -1})
	return nil
}

// stubExitError mimics an exec.ExitError for exit-code extraction
type stubExitError struct {
	code int
}

func (e *stubExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *stubExitError) ExitCode() int {
	return e.code
}
