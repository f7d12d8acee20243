package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPIDFileRoundTrip(t *testing.T) {
	p := PIDFile{Path: filepath.Join(t.TempDir(), "run", "tripbudgetd.pid")}

	if _, err := p.Read(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read on missing file = %v, want ErrNotExist", err)
	}
	if err := p.EnsureNotRunning(); err != nil {
		t.Fatalf("EnsureNotRunning without pid file: %v", err)
	}

	if err := p.Write(4242); err != nil {
		t.Fatalf("Write: %v", err)
	}
	pid, err := p.Read()
	if err != nil || pid != 4242 {
		t.Fatalf("Read = %d, %v, want 4242", pid, err)
	}

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := p.WriteState(RuntimeState{PID: 4242, Addr: "127.0.0.1:9000", StartedAt: started}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	st, err := p.ReadState()
	if err != nil {
		t.Fatalf("ReadState: %v", err)
	}
	if st.Addr != "127.0.0.1:9000" || !st.StartedAt.Equal(started) {
		t.Fatalf("state = %+v", st)
	}

	p.Remove()
	if _, err := os.Stat(p.StatePath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("state file survived Remove: %v", err)
	}
}

func TestPIDFileRejectsGarbage(t *testing.T) {
	p := PIDFile{Path: filepath.Join(t.TempDir(), "d.pid")}
	if err := os.WriteFile(p.Path, []byte("not-a-pid\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Read(); err == nil {
		t.Fatal("expected error for malformed pid")
	}
}

func TestEnsureNotRunning(t *testing.T) {
	p := PIDFile{Path: filepath.Join(t.TempDir(), "d.pid")}

	if err := p.Write(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	if err := p.EnsureNotRunning(); err == nil {
		t.Fatal("expected error while the recorded process is alive")
	}

	// Above the default Linux pid_max, so never a live process.
	if err := p.Write(1 << 23); err != nil {
		t.Fatal(err)
	}
	if err := p.EnsureNotRunning(); err != nil {
		t.Fatalf("stale pid: %v", err)
	}
	if _, err := os.Stat(p.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale pid file not removed: %v", err)
	}
}
