package targets

import (
	"net/url"
	"strings"

	"github.com/mmrzaf/tabgen/internal/domain"
)

const mask = "****"

func isSecretKey(k string) bool {
	switch strings.ToLower(k) {
	case "password", "pass", "pwd", "api_key", "apikey", "token":
		return true
	}
	return false
}

// RedactDSN masks credentials in a URL or keyword/value DSN. A DSN in
// neither form is masked entirely.
func RedactDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return ""
	}

	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Host != "" {
		if u.User != nil {
			u.User = url.UserPassword(u.User.Username(), mask)
		}
		q := u.Query()
		for k := range q {
			if isSecretKey(k) {
				q.Set(k, mask)
			}
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	fields := strings.Fields(dsn)
	keyword := false
	for i, f := range fields {
		k, _, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		keyword = true
		if isSecretKey(k) {
			fields[i] = k + "=" + mask
		}
	}
	if keyword {
		return strings.Join(fields, " ")
	}
	return mask
}

// RedactTarget returns a copy of t that is safe to print. File targets keep
// their directory.
func RedactTarget(t *domain.TargetConfig) *domain.TargetConfig {
	if t == nil {
		return nil
	}
	cp := *t
	if cp.Kind != domain.TargetKindCSV && cp.Kind != domain.TargetKindParquet {
		cp.DSN = RedactDSN(cp.DSN)
	}
	return &cp
}

func RedactTargets(list []*domain.TargetConfig) []*domain.TargetConfig {
	out := make([]*domain.TargetConfig, len(list))
	for i, t := range list {
		out[i] = RedactTarget(t)
	}
	return out
}
