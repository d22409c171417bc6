package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lychee-technology/attrkit"
)

// FileSchemaSource reads attribute snapshots from a directory of
// <objectType>_attributes.json files. Files are read on every fetch; the
// engine caches the result.
type FileSchemaSource struct {
	snapshotSource
	dir string
}

var _ attrkit.Source = (*FileSchemaSource)(nil)

// NewFileSchemaSource creates a source over schemaDir.
func NewFileSchemaSource(schemaDir string) *FileSchemaSource {
	s := &FileSchemaSource{dir: schemaDir}
	s.load = s.readFile
	return s
}

func (s *FileSchemaSource) readFile(_ context.Context, objectType string) ([]byte, string, error) {
	path := filepath.Join(s.dir, objectType+AttributesFileSuffix)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, path, fmt.Errorf("%w: attributes file %s", attrkit.ErrNotFound, path)
		}
		return nil, path, fmt.Errorf("failed to read attributes file %s: %w", path, err)
	}
	return data, path, nil
}

// ObjectTypes lists the object types that have a snapshot in the directory.
func (s *FileSchemaSource) ObjectTypes() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}
	var types []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isAttributesFile(name) {
			continue
		}
		types = append(types, strings.TrimSuffix(name, AttributesFileSuffix))
	}
	slices.Sort(types)
	return types, nil
}

// isAttributesFile checks if a filename is an attributes file (ends with _attributes.json)
func isAttributesFile(name string) bool {
	return len(name) > len(AttributesFileSuffix) && strings.HasSuffix(name, AttributesFileSuffix)
}
