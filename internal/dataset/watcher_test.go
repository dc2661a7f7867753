package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T) (*Watcher, string, string) {
	t.Helper()
	dir := t.TempDir()
	ppi := writeFile(t, dir, "ppi.csv", "a,b\nX,Y\n")
	manifest := writeFile(t, dir, "dataset.toml", "[dataset]\nppi = \"ppi.csv\"\n")

	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	w, err := NewWatcher(manifest, m)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, dir, ppi
}

func TestWatcher_DetectsTableChange(t *testing.T) {
	w, _, ppi := startWatcher(t)

	if err := os.WriteFile(ppi, []byte("a,b\nX,Y\nY,Z\n"), 0o644); err != nil {
		t.Fatalf("failed to update table: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.File != ppi {
			t.Errorf("expected change to %q, got %q", ppi, change.File)
		}
		if change.Removed {
			t.Error("write reported as removal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	w, dir, _ := startWatcher(t)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	select {
	case change := <-w.Changes:
		t.Errorf("unexpected change event: %+v", change)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DetectsRemoval(t *testing.T) {
	w, _, ppi := startWatcher(t)

	if err := os.Remove(ppi); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case change := <-w.Changes:
		if !change.Removed {
			t.Errorf("expected removal, got %+v", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal event")
	}
}

func TestWatcher_StopWithUndrainedChanges(t *testing.T) {
	dir := t.TempDir()
	ppi := writeFile(t, dir, "ppi.csv", "a,b\nX,Y\n")
	manifest := writeFile(t, dir, "dataset.toml", "[dataset]\nppi = \"ppi.csv\"\n")
	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	w, err := NewWatcher(manifest, m)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	// Fill the buffer so the next debounced change would block the loop.
	for range cap(w.changes) {
		w.changes <- Change{File: ppi}
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := os.WriteFile(ppi, []byte("a,b\nX,Z\n"), 0o644); err != nil {
		t.Fatalf("failed to update table: %v", err)
	}
	time.Sleep(3 * debounce)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a full Changes channel")
	}
}
