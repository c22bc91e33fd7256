package synth

import (
	"github.com/mmrzaf/tabgen/internal/domain"
)

// Assemble joins sampled columns into a table, keeping their order. Every
// column must hold exactly rows values.
func Assemble(cols []domain.Column, rows int) (*domain.Table, error) {
	for _, c := range cols {
		if c.Len() != rows {
			return nil, domain.NewSpecError(domain.ErrColumnLengthMismatch, c.Name,
				"has %d values, want %d", c.Len(), rows)
		}
	}
	return &domain.Table{Columns: cols, RowCount: rows}, nil
}
