package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flashcat/flash/internal/pipeline"
)

func TestFullScanEmitsImagesAndVideos(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.jpg"), "jpeg-bytes")
	mustWrite(t, filepath.Join(root, "b.mp4"), "mp4-bytes")
	mustWrite(t, filepath.Join(root, "notes.txt"), "text")
	mustWrite(t, filepath.Join(root, ".hidden.jpg"), "hidden")

	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWrite(t, filepath.Join(sub, "c.png"), "png-bytes")

	fab := pipeline.NewFabric(false)
	d := New(fab, nil)

	done := make(chan error, 1)
	go func() { done <- d.FullScan(context.Background(), root) }()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		item, ok := fab.RecvDiscover()
		if !ok {
			t.Fatal("discover queue closed early")
		}
		seen[filepath.Base(item.Path)] = true
	}
	if err := <-done; err != nil {
		t.Fatalf("FullScan() error = %v", err)
	}

	for _, want := range []string{"a.jpg", "b.mp4", "c.png"} {
		if !seen[want] {
			t.Errorf("expected %s to be discovered, got %v", want, seen)
		}
	}
	if seen["notes.txt"] || seen[".hidden.jpg"] {
		t.Errorf("discovered non-media or hidden entries: %v", seen)
	}
}

func TestFullScanHonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".flashignore"), "skip-me*\n")
	mustWrite(t, filepath.Join(root, "skip-me.jpg"), "skipped")
	mustWrite(t, filepath.Join(root, "keep.jpg"), "kept")

	fab := pipeline.NewFabric(false)
	d := New(fab, nil)

	done := make(chan error, 1)
	go func() { done <- d.FullScan(context.Background(), root) }()

	item, ok := fab.RecvDiscover()
	if !ok {
		t.Fatal("expected one discovered file")
	}
	if filepath.Base(item.Path) != "keep.jpg" {
		t.Errorf("got %s, want keep.jpg", item.Path)
	}
	if err := <-done; err != nil {
		t.Fatalf("FullScan() error = %v", err)
	}
}

func TestFullScanIgnorePatternMatchesSubdirectoryRelativePath(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ".flashignore"), "raw/*.jpg\n")

	raw := filepath.Join(root, "raw")
	if err := os.Mkdir(raw, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWrite(t, filepath.Join(raw, "skip.jpg"), "skipped")
	mustWrite(t, filepath.Join(root, "keep.jpg"), "kept")

	fab := pipeline.NewFabric(false)
	d := New(fab, nil)

	done := make(chan error, 1)
	go func() { done <- d.FullScan(context.Background(), root) }()

	item, ok := fab.RecvDiscover()
	if !ok {
		t.Fatal("expected one discovered file")
	}
	if filepath.Base(item.Path) != "keep.jpg" {
		t.Errorf("got %s, want keep.jpg (raw/*.jpg should be ignored via relative path)", item.Path)
	}
	if err := <-done; err != nil {
		t.Fatalf("FullScan() error = %v", err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
