package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/couchcryptid/geoguess-service/internal/domain"
)

// Dir implements domain.DatasetFetcher over a file system, typically
// os.DirFS of the data directory.
type Dir struct {
	fsys fs.FS
}

// NewDir creates a fetcher reading from fsys.
func NewDir(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

// FetchDataset reads path from the file system. Missing files map to
// domain.ErrDatasetNotFound.
func (d *Dir) FetchDataset(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = strings.TrimLeft(path, "/")
	if !fs.ValidPath(path) {
		return nil, fmt.Errorf("invalid dataset path %q", path)
	}
	data, err := fs.ReadFile(d.fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
