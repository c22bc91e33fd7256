package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mmrzaf/tabgen/internal/domain"
)

type runConfigHashPayload struct {
	SpecHash     string   `json:"spec_hash"`
	TargetKind   string   `json:"target_kind"`
	TargetSchema string   `json:"target_schema,omitempty"`
	TargetDSN    string   `json:"target_dsn"`
	TargetTable  string   `json:"target_table"`
	Mode         string   `json:"mode"`
	Rows         int      `json:"rows"`
	Seed         int64    `json:"seed"`
	Defaults     []string `json:"default_categories"`
}

// HashRunConfig identifies everything that decides what a run writes and
// where. defaults are the categories resolved for the run, which may come
// from the server rather than the spec.
func HashRunConfig(spec *domain.TableSpec, target *domain.TargetConfig, table, mode string, rows int, seed int64, defaults []string) (string, error) {
	sh, err := HashSpec(spec)
	if err != nil {
		return "", err
	}

	p := runConfigHashPayload{
		SpecHash:     sh,
		TargetKind:   target.Kind,
		TargetSchema: target.Schema,
		TargetDSN:    target.DSN,
		TargetTable:  table,
		Mode:         mode,
		Rows:         rows,
		Seed:         seed,
		Defaults:     nonNil(defaults),
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
