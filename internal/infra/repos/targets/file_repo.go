package targets

import (
	"fmt"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/repos/docfile"
)

// FileRepository reads target configs from YAML or JSON files. It is
// read-only and used by the CLI.
type FileRepository struct {
	baseDir string
}

func NewFileRepository(baseDir string) *FileRepository {
	return &FileRepository{baseDir: baseDir}
}

func (r *FileRepository) List() ([]*domain.TargetConfig, error) {
	paths, err := docfile.List(r.baseDir)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.TargetConfig, 0, len(paths))
	for _, p := range paths {
		t, err := loadTarget(p)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *FileRepository) Get(id string) (*domain.TargetConfig, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.ID == id || t.Name == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r *FileRepository) GetByPath(path string) (*domain.TargetConfig, error) {
	full, err := docfile.Resolve(r.baseDir, path)
	if err != nil {
		return nil, err
	}
	return loadTarget(full)
}

// LoadFile reads a target config from an arbitrary path.
func LoadFile(path string) (*domain.TargetConfig, error) {
	return loadTarget(path)
}

func loadTarget(path string) (*domain.TargetConfig, error) {
	var t domain.TargetConfig
	if err := docfile.Decode(path, &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = docfile.BaseID(path)
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	return &t, nil
}
