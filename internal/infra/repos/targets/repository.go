package targets

import (
	"errors"

	"github.com/mmrzaf/tabgen/internal/domain"
)

var ErrNotFound = errors.New("target not found")

// Repository is the DB-backed target store used by the API.
type Repository interface {
	List() ([]*domain.TargetConfig, error)
	Get(id string) (*domain.TargetConfig, error)

	Create(t *domain.TargetConfig) error
	Update(t *domain.TargetConfig) error
	Delete(id string) error

	RecordCheck(c *domain.TargetCheck) error
	ListChecks(targetID string, limit int) ([]*domain.TargetCheck, error)
}
