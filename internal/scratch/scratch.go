// Package scratch manages the per-invocation local copy of the source PDF.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const filePrefix = "pdf2webp-"

// File is a scratch path owned by one invocation.
type File struct {
	Path string
}

// New reserves a unique path under dir. The file is not created; the
// downloader creates it. The .pdf suffix lets MuPDF pick the PDF handler.
func New(dir string) (*File, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	name := filePrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + ".pdf"
	return &File{Path: filepath.Join(dir, name)}, nil
}

// Remove deletes the file if it exists. Safe to call more than once.
func (f *File) Remove() {
	if f == nil || f.Path == "" {
		return
	}
	err := os.Remove(f.Path)
	switch {
	case err == nil:
		log.Info().Str("path", f.Path).Msg("removed temporary file")
	case os.IsNotExist(err):
	default:
		log.Warn().Err(err).Str("path", f.Path).Msg("failed to remove temporary file")
	}
}

// CleanupStale removes scratch files older than maxAge. Warm Lambda
// containers keep /tmp across invocations, and an invocation killed by the
// platform timeout never reaches its own Remove.
func CleanupStale(dir string, maxAge time.Duration) int {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	now := time.Now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= maxAge {
			if os.Remove(filepath.Join(dir, e.Name())) == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Str("dir", dir).Msg("cleaned stale scratch files")
	}
	return removed
}
