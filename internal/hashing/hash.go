package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/mmrzaf/tabgen/internal/domain"
)

// HashRequest fingerprints everything that determines a generated table:
// the request, the seed and the default categories. Equal hashes mean equal
// tables.
func HashRequest(req *domain.TabularRequest, seed int64, defaults []string) (string, error) {
	payload := map[string]interface{}{
		"request":  canonicalizeRequest(req),
		"seed":     seed,
		"defaults": nonNil(defaults),
	}
	return sum(payload)
}

func HashSpec(spec *domain.TableSpec) (string, error) {
	return sum(canonicalizeSpec(spec))
}

func canonicalizeSpec(spec *domain.TableSpec) map[string]interface{} {
	result := map[string]interface{}{
		"name":               spec.Name,
		"request":            canonicalizeRequest(&spec.Request),
		"default_categories": nonNil(spec.DefaultCategories),
	}
	if spec.ID != "" {
		result["id"] = spec.ID
	}
	if spec.Version != "" {
		result["version"] = spec.Version
	}
	if spec.TargetTable != "" {
		result["target_table"] = spec.TargetTable
	}
	if spec.Seed != nil {
		result["seed"] = *spec.Seed
	}
	return result
}

// canonicalizeRequest folds spellings that normalize identically, so
// " Numeric" and "numeric" hash the same.
func canonicalizeRequest(req *domain.TabularRequest) map[string]interface{} {
	types := make([]string, len(req.ColTypes))
	for i, t := range req.ColTypes {
		types[i] = strings.ToLower(strings.TrimSpace(t))
	}
	names := make([]string, len(req.ColNames))
	for i, n := range req.ColNames {
		names[i] = strings.TrimSpace(n)
	}

	result := map[string]interface{}{
		"rows":      req.Rows,
		"cols":      req.Cols,
		"col_types": types,
		"col_names": names,
	}
	if req.Noise != nil {
		result["noise"] = *req.Noise
	}
	if len(req.NumericParams) > 0 {
		result["numeric_params"] = req.NumericParams
	}
	if len(req.CategoricalParams) > 0 {
		result["categorical_params"] = req.CategoricalParams
	}
	if req.Index != nil {
		result["index"] = *req.Index
	}
	return result
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func sum(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
