package runs

import (
	"database/sql"
	"errors"

	"github.com/mmrzaf/tabgen/internal/domain"
)

var ErrNotFound = errors.New("run not found")

// Repository stores run metadata, progress and logs for the control plane DB.
type Repository interface {
	Init() error
	Close() error
	DB() *sql.DB
	Create(run *domain.Run) error
	Update(run *domain.Run) error
	Get(id string) (*domain.Run, error)
	List(limit int, status string) ([]*domain.Run, error)
	UpdateProgress(id string, rowsWritten, rowsTotal int64) error
	AppendRunLog(runID, level, message string) error
	ListRunLogs(runID string, limit int) ([]*domain.RunLog, error)
}
