package bundler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Write stores every output file. Each file is first written to a temporary sibling
// and only renamed into place once all of them were written. Files being replaced
// are moved aside until every rename succeeded, so a failed write restores the
// previous state of all destinations.
func Write(fs afero.Fs, outputs []OutputFile) error {
	type staged struct {
		tmp, dst string
		backup   string // previous file at dst, set once moved aside
		placed   bool
	}
	var pending []*staged

	rollback := func() {
		for i := len(pending) - 1; i >= 0; i-- {
			s := pending[i]
			if s.placed {
				_ = fs.Remove(s.dst)
			} else {
				_ = fs.Remove(s.tmp)
			}
			if s.backup != "" {
				if err := fs.Rename(s.backup, s.dst); err != nil {
					log.Warn().Err(err).Str("path", s.dst).Str("backup", s.backup).Msg("Failed to restore output file")
				}
			}
		}
	}

	for _, out := range outputs {
		dir := filepath.Dir(out.Path)
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			rollback()
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		tmp, err := afero.TempFile(fs, dir, ".urlpack-*")
		if err != nil {
			rollback()
			return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
		}
		pending = append(pending, &staged{tmp: tmp.Name(), dst: out.Path})

		if _, err := tmp.Write(out.Contents); err != nil {
			_ = tmp.Close()
			rollback()
			return fmt.Errorf("failed to write %s: %w", out.Path, err)
		}
		if err := tmp.Close(); err != nil {
			rollback()
			return fmt.Errorf("failed to write %s: %w", out.Path, err)
		}
	}

	for _, s := range pending {
		info, err := fs.Stat(s.dst)
		switch {
		case err == nil && !info.IsDir():
			backup := s.tmp + ".prev"
			if err := fs.Rename(s.dst, backup); err != nil {
				rollback()
				return fmt.Errorf("failed to move %s aside: %w", s.dst, err)
			}
			s.backup = backup
		case err != nil && !errors.Is(err, os.ErrNotExist):
			rollback()
			return fmt.Errorf("failed to inspect %s: %w", s.dst, err)
		}

		if err := fs.Rename(s.tmp, s.dst); err != nil {
			rollback()
			return fmt.Errorf("failed to move %s into place: %w", s.dst, err)
		}
		s.placed = true
	}

	for _, s := range pending {
		if s.backup != "" {
			_ = fs.Remove(s.backup)
		}
		log.Debug().Str("path", s.dst).Msg("Wrote output file")
	}
	return nil
}
