package specs

import (
	"errors"
	"fmt"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/repos/docfile"
)

var ErrNotFound = errors.New("spec not found")

type Repository interface {
	List() ([]*domain.TableSpec, error)
	Get(id string) (*domain.TableSpec, error)
	GetByPath(path string) (*domain.TableSpec, error)
}

// FileRepository serves table specs stored as YAML or JSON files in one
// directory. Unparseable files are skipped by List.
type FileRepository struct {
	baseDir string
}

func NewFileRepository(baseDir string) *FileRepository {
	return &FileRepository{baseDir: baseDir}
}

func (r *FileRepository) List() ([]*domain.TableSpec, error) {
	paths, err := docfile.List(r.baseDir)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.TableSpec, 0, len(paths))
	for _, p := range paths {
		spec, err := load(p)
		if err != nil {
			continue
		}
		out = append(out, spec)
	}
	return out, nil
}

// Get matches id against the spec ID first, then its name.
func (r *FileRepository) Get(id string) (*domain.TableSpec, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, nil
		}
	}
	for _, s := range list {
		if s.Name == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r *FileRepository) GetByPath(path string) (*domain.TableSpec, error) {
	full, err := docfile.Resolve(r.baseDir, path)
	if err != nil {
		return nil, err
	}
	return load(full)
}

// LoadFile reads a spec from an arbitrary path, for CLI use.
func LoadFile(path string) (*domain.TableSpec, error) {
	return load(path)
}

func load(path string) (*domain.TableSpec, error) {
	var spec domain.TableSpec
	if err := docfile.Decode(path, &spec); err != nil {
		return nil, err
	}
	if spec.ID == "" {
		spec.ID = docfile.BaseID(path)
	}
	if spec.Name == "" {
		spec.Name = spec.ID
	}
	return &spec, nil
}
