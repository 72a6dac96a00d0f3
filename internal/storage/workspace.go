package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace owns the temporary files of one pipeline run. Every run
// gets its own directory tree under the work root, so concurrent runs
// never collide on asset names. The workspace is removed on successful
// export and deliberately retained when the export fails, so a run can
// be diagnosed and retried without re-fetching assets.
type Workspace struct {
	RunID string
	root  string
}

// NewWorkspace creates a fresh per-run directory tree.
func NewWorkspace(workRoot string) (*Workspace, error) {
	runID := uuid.NewString()
	root := filepath.Join(workRoot, runID)

	for _, dir := range []string{"images", "videos", "audio", "clips"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create workspace dir %s: %w", dir, err)
		}
	}

	return &Workspace{RunID: runID, root: root}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// NewImagePath returns a unique path for a fetched image.
func (w *Workspace) NewImagePath() string {
	return filepath.Join(w.root, "images", uuid.NewString()+".jpg")
}

// NewVideoPath returns a unique path for a fetched video clip.
func (w *Workspace) NewVideoPath() string {
	return filepath.Join(w.root, "videos", uuid.NewString()+".mp4")
}

// AudioPath returns the path for the run's narration audio file.
func (w *Workspace) AudioPath(name string) string {
	return filepath.Join(w.root, "audio", name)
}

// ClipPath returns the path for an intermediate rendered segment clip.
func (w *Workspace) ClipPath(name string) string {
	return filepath.Join(w.root, "clips", name)
}

// TempPath returns a path for any other intermediate file of this run.
func (w *Workspace) TempPath(name string) string {
	return filepath.Join(w.root, name)
}

// Cleanup removes the entire run directory and everything in it.
func (w *Workspace) Cleanup() {
	if err := os.RemoveAll(w.root); err != nil {
		log.Printf("[Workspace] Cleanup of %s failed: %v", w.root, err)
	}
}

// Publish moves a finished video into place atomically: the file is
// copied next to its destination and renamed over it, so a reader never
// sees a partially written output and an aborted run leaves nothing
// behind at the final path.
func Publish(srcPath, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	// Stage within the destination directory so the final rename stays
	// on one filesystem.
	staging := destPath + ".partial"

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open rendered video: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(staging)
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(staging)
		return fmt.Errorf("failed to copy video to staging: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to flush staging file: %w", err)
	}

	if err := os.Rename(staging, destPath); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to publish video: %w", err)
	}
	return nil
}
