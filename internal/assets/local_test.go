package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListClips(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "b.MOV", "notes.txt", "c.webm"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	clips, err := ListClips(dir)
	if err != nil {
		t.Fatalf("ListClips() error = %v", err)
	}
	if len(clips) != 3 {
		t.Errorf("ListClips() = %v, want 3 clips", clips)
	}
}

func TestListClipsMissingDir(t *testing.T) {
	if _, err := ListClips("/nonexistent/footage"); err == nil {
		t.Error("ListClips() should fail for a missing directory")
	}
}
