package store

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

//go:embed resources
var bundled embed.FS

// ExtractResources copies the bundled template and rule files into the
// content root. Files that already exist are left alone so local edits
// survive.
func (s *Store) ExtractResources() error {
	return fs.WalkDir(bundled, resourcesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(s.root, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if _, err := os.Stat(target); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", target, err)
		}

		data, err := bundled.ReadFile(path)
		if err != nil {
			return err
		}
		if err := writeFile(target, data); err != nil {
			return fmt.Errorf("failed to extract %s: %w", path, err)
		}
		s.logger.Debug("resource extracted", zap.String("path", target))
		return nil
	})
}
