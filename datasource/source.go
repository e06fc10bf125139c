package datasource

import (
	"context"
	"io/fs"
	"strings"
)

// Source reads the bundled payload for an endpoint.
type Source interface {
	Read(ctx context.Context, endpoint string) ([]byte, error)
}

// FSSource reads "<endpoint>.json" files from a file system, typically the
// embedded data directory or os.DirFS of a data directory.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a Source backed by fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Read returns the payload bytes for endpoint.
func (s *FSSource) Read(ctx context.Context, endpoint string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validEndpoint(endpoint) {
		return nil, fs.ErrInvalid
	}
	return fs.ReadFile(s.fsys, endpoint+".json")
}

// validEndpoint accepts a single path element; nested names and dot
// segments are rejected so an endpoint can never escape the data root.
func validEndpoint(endpoint string) bool {
	if endpoint == "" || strings.ContainsAny(endpoint, `/\`) {
		return false
	}
	return fs.ValidPath(endpoint) && endpoint != "." && !strings.HasPrefix(endpoint, "..")
}
