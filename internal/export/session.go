// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Session is one run's output directory tree. Each run gets a fresh
// timestamped root so reruns never clobber earlier results.
type Session struct {
	Root     string
	Outputs  string
	Logs     string
	Metadata string
	Temp     string
}

// NewSession creates the session directory tree under baseDir.
func NewSession(baseDir string) (Session, error) {
	root := filepath.Join(baseDir, "session_"+timestamp(now()))
	s := Session{
		Root:     root,
		Outputs:  filepath.Join(root, "outputs"),
		Logs:     filepath.Join(root, "logs"),
		Metadata: filepath.Join(root, "metadata"),
		Temp:     filepath.Join(root, "temp"),
	}

	for _, dir := range []string{s.Root, s.Outputs, s.Logs, s.Metadata, s.Temp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Session{}, fmt.Errorf("creating session directory %s: %w", dir, err)
		}
	}
	return s, nil
}
