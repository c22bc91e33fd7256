package app

import (
	"net/url"
	"strings"

	"github.com/mmrzaf/tabgen/internal/domain"
)

const sqliteBusyTimeoutMS = "5000"

// effectiveTarget returns a copy of cfg whose DSN is ready to open. A
// postgres DSN is pointed at cfg.Database when set; a sqlite DSN gets a
// busy timeout unless it names one.
func effectiveTarget(cfg *domain.TargetConfig) *domain.TargetConfig {
	if cfg == nil {
		return nil
	}
	t := *cfg
	switch t.Kind {
	case domain.TargetKindPostgres:
		if t.Database != "" {
			t.DSN = withPostgresDatabase(t.DSN, t.Database)
		}
	case domain.TargetKindSQLite:
		t.DSN = withSQLiteBusyTimeout(t.DSN)
	}
	return &t
}

// withPostgresDatabase rewrites the database of a URL or keyword/value DSN.
func withPostgresDatabase(dsn, database string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return dsn
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Host != "" {
		u.Path = "/" + database
		return u.String()
	}

	fields := strings.Fields(dsn)
	out := fields[:0]
	for _, f := range fields {
		if k, _, ok := strings.Cut(f, "="); ok && strings.EqualFold(k, "dbname") {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(append(out, "dbname="+database), " ")
}

func withSQLiteBusyTimeout(dsn string) string {
	if dsn == "" || strings.Contains(dsn, "_timeout=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=" + sqliteBusyTimeoutMS
}
