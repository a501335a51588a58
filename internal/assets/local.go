// Package assets locates footage for the CLI to upload: files already on
// disk, or recordings pulled down from the club's storage bucket.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var clipExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// ListClips returns the video files directly inside dir.
func ListClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read footage directory: %w", err)
	}

	var clips []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if clipExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			clips = append(clips, filepath.Join(dir, entry.Name()))
		}
	}

	return clips, nil
}
