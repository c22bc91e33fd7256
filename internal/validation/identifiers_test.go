package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmrzaf/tabgen/internal/domain"
)

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"a", "A", "_a", "col_0", "daily_sales", "risk_level"} {
		assert.True(t, IsValidIdentifier(s), s)
	}
	for _, s := range []string{"", "1a", "a-b", "a b", "a;b", "a\"b", "a.b", "select", "Group", "order", "user"} {
		assert.False(t, IsValidIdentifier(s), s)
	}
}

func TestDefaultColumnNamesAreSQLSafe(t *testing.T) {
	for i := 0; i < 12; i++ {
		assert.True(t, IsValidIdentifier(DefaultColumnName(i)))
	}
	assert.Equal(t, "col_3", DefaultColumnName(3))
}

func TestIsValidMode(t *testing.T) {
	for _, m := range []string{domain.TableModeCreate, domain.TableModeTruncate, domain.TableModeAppend} {
		assert.True(t, IsValidMode(m), m)
	}
	for _, m := range []string{"", "create_if_missing", "replace"} {
		assert.False(t, IsValidMode(m), m)
	}
}
