package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/psidex/dossiergraph/internal/dossier"
)

// FileSource reads <Dir>/<id>.json.
type FileSource struct {
	Dir string
}

var _ Source = (*FileSource)(nil)

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s FileSource) Dossier(ctx context.Context, id string) (dossier.Record, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return dossier.Record{}, fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	if err := ctx.Err(); err != nil {
		return dossier.Record{}, err
	}

	record, err := dossier.Load(filepath.Join(s.Dir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return dossier.Record{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return record, err
}
