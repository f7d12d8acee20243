package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// RuntimeState is written next to the pid file so `daemon status` can find
// a daemon started with non-default flags.
type RuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Store     string    `json:"store"`
}

// PIDFile tracks a running daemon process on disk.
type PIDFile struct {
	Path string
}

// StatePath is where the RuntimeState lives.
func (p PIDFile) StatePath() string { return p.Path + ".json" }

// Write records pid, creating the parent directory if needed.
func (p PIDFile) Write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	return os.WriteFile(p.Path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

// Read returns the recorded pid. A missing file yields an error matching
// os.ErrNotExist.
func (p PIDFile) Read() (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p.Path)
	}
	return pid, nil
}

// Remove deletes the pid and state files.
func (p PIDFile) Remove() {
	_ = os.Remove(p.Path)
	_ = os.Remove(p.StatePath())
}

// EnsureNotRunning fails if the recorded process is alive and clears a
// stale pid file otherwise.
func (p PIDFile) EnsureNotRunning() error {
	pid, err := p.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if ProcessAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	p.Remove()
	return nil
}

// WriteState records st beside the pid file.
func (p PIDFile) WriteState(st RuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.StatePath(), append(data, '\n'), 0o600)
}

// ReadState loads the state written by WriteState.
func (p PIDFile) ReadState() (RuntimeState, error) {
	var st RuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(p.StatePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// ProcessAlive reports whether pid names a live process.
func ProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
