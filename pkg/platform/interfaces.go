package platform

import (
	"io"
	"os"
	"syscall"
)

// Platform provides a unified interface for all platform-specific operations.
// It is injected into every component that touches the filesystem or spawns
// processes, so tests can substitute deterministic doubles for daemon
// start/crash/kill scenarios.
type Platform interface {
	OSOperations
	SyscallOperations
	CommandFactory
	ExecOperations
}

// OSOperations defines file system and OS-level operations
type OSOperations interface {
	// File operations
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadFile(path string) ([]byte, error)
	Remove(path string) error
	RemoveAll(dir string) error
	MkdirAll(dir string, perm os.FileMode) error
	CreateTemp(dir string, pattern string) (*os.File, error)

	// File info operations
	Stat(name string) (os.FileInfo, error)
	IsNotExist(err error) bool
	ReadDir(dir string) ([]os.DirEntry, error)

	// Additional helpers
	DirExists(path string) bool
	FileExists(path string) bool
}

// SyscallOperations defines low-level system call operations
type SyscallOperations interface {
	// Process control. Kill with signal 0 probes whether a process exists.
	Kill(pid int, sig syscall.Signal) error
	CreateProcessGroup() *syscall.SysProcAttr
}

// CommandFactory creates and manages command execution
type CommandFactory interface {
	CreateCommand(name string, args ...string) Command
}

// Command represents an executing command
type Command interface {
	Start() error
	Wait() error
	Run() error
	Process() Process
	SetStdout(w io.Writer)
	SetStderr(w io.Writer)
	SetEnv(env []string)
	SetDir(dir string)
	SetSysProcAttr(attr *syscall.SysProcAttr)
	Kill()
}

// Process represents a running process
type Process interface {
	Pid() int
	Kill() error
}

// ExecOperations defines executable resolution operations
type ExecOperations interface {
	LookPath(file string) (string, error)
}
