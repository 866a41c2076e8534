// Package file writes rendered alert maps to a directory as GeoJSON files.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/storm-alert-polygons/internal/adapter/geojson"
	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

const ext = ".geojson"

// Writer writes conus.geojson plus one <region>.geojson per populated region.
// Files from a previous run whose region received no tuples this time are
// removed so the directory always reflects the latest run. It implements
// pipeline.Sink.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a file sink rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

func (w *Writer) Publish(ctx context.Context, m domain.AlertMap) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	written := make(map[string]struct{})
	for _, doc := range geojson.Documents(m) {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := geojson.Encode(doc)
		if err != nil {
			return err
		}
		name := doc.Name + ext
		if err := writeAtomic(filepath.Join(w.dir, name), data); err != nil {
			return err
		}
		written[name] = struct{}{}
	}

	if err := w.prune(written); err != nil {
		return err
	}
	w.logger.Info("wrote alert maps", "dir", w.dir, "files", len(written))
	return nil
}

func (w *Writer) prune(keep map[string]struct{}) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("list output dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil {
			return fmt.Errorf("remove stale map: %w", err)
		}
		w.logger.Debug("removed stale map", "file", name)
	}
	return nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path, so readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
