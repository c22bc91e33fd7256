package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/generators"
	"github.com/mmrzaf/tabgen/internal/registry"
)

type Validator struct {
	samplers *registry.SamplerRegistry
}

func NewValidator(samplers *registry.SamplerRegistry) *Validator {
	if samplers == nil {
		samplers = registry.DefaultSamplerRegistry()
	}
	return &Validator{samplers: samplers}
}

// identifier validation: allow simple SQL identifiers only (prevents injection via table/column names).
var (
	identRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reservedWords = map[string]struct{}{
		"add": {}, "all": {}, "alter": {}, "and": {}, "any": {}, "as": {},
		"asc": {}, "between": {}, "by": {}, "case": {}, "check": {},
		"column": {}, "constraint": {}, "create": {}, "cross": {}, "current_date": {},
		"current_time": {}, "current_timestamp": {}, "database": {}, "default": {}, "delete": {},
		"desc": {}, "distinct": {}, "do": {}, "drop": {}, "else": {},
		"end": {}, "except": {}, "exists": {}, "false": {}, "for": {},
		"foreign": {}, "from": {}, "full": {}, "grant": {}, "group": {},
		"having": {}, "in": {}, "index": {}, "inner": {}, "insert": {},
		"intersect": {}, "into": {}, "is": {}, "join": {}, "key": {},
		"left": {}, "like": {}, "limit": {}, "natural": {}, "not": {},
		"null": {}, "offset": {}, "on": {}, "or": {}, "order": {},
		"outer": {}, "primary": {}, "references": {}, "returning": {}, "revoke": {},
		"right": {}, "schema": {}, "select": {}, "set": {}, "table": {},
		"then": {}, "to": {}, "true": {}, "truncate": {}, "union": {},
		"unique": {}, "update": {}, "user": {}, "using": {}, "values": {},
		"view": {}, "when": {}, "where": {}, "with": {},
	}
)

func IsValidIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !identRe.MatchString(s) {
		return false
	}
	if _, ok := reservedWords[strings.ToLower(s)]; ok {
		return false
	}
	return true
}

// DefaultColumnName is the name given to column i when none is supplied.
func DefaultColumnName(i int) string {
	return fmt.Sprintf("col_%d", i)
}

// Normalize turns a terse TabularRequest into one fully populated
// ColumnSpec per column. defaults are the categories used by categorical
// columns that name none of their own. It performs every check up front so
// that sampling cannot fail on caller input.
func (v *Validator) Normalize(req *domain.TabularRequest, defaults []string) ([]domain.ColumnSpec, error) {
	if req == nil {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "", "request is required")
	}
	if req.Rows <= 0 {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "", "rows must be > 0, got %d", req.Rows)
	}
	if req.Cols <= 0 {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "", "cols must be > 0, got %d", req.Cols)
	}

	names, err := resolveNames(req)
	if err != nil {
		return nil, err
	}

	samplers := make([]generators.Sampler, req.Cols)
	var numericCount, categoricalCount int
	for i := 0; i < req.Cols; i++ {
		token := string(domain.ColumnKindNumeric)
		if len(req.ColTypes) > 0 {
			token = req.ColTypes[i]
		}
		s, err := v.samplers.Get(token)
		if err != nil {
			return nil, domain.NewSpecError(domain.ErrUnknownColumnType, names[i], "type %q", token)
		}
		samplers[i] = s
		switch s.Kind() {
		case domain.ColumnKindNumeric:
			numericCount++
		case domain.ColumnKindCategorical:
			categoricalCount++
		}
	}

	if n := len(req.NumericParams); n > 0 && n != numericCount {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "",
			"%d numeric_params entries for %d numeric columns", n, numericCount)
	}
	if n := len(req.CategoricalParams); n > 0 && n != categoricalCount {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "",
			"%d categorical_params entries for %d categorical columns", n, categoricalCount)
	}

	globalNoise := domain.DefaultNoise
	if req.Noise != nil {
		globalNoise = *req.Noise
		if !(globalNoise >= 0 && globalNoise < 1) {
			return nil, domain.NewSpecError(domain.ErrInvalidParameter, "", "noise must be in [0, 1), got %v", globalNoise)
		}
	}

	specs := make([]domain.ColumnSpec, req.Cols)
	var numericIdx, categoricalIdx int
	for i, s := range samplers {
		spec := domain.ColumnSpec{Name: names[i], Kind: s.Kind()}
		switch s.Kind() {
		case domain.ColumnKindNumeric:
			var o domain.NumericOverride
			if len(req.NumericParams) > 0 {
				o = req.NumericParams[numericIdx]
			}
			numericIdx++
			spec.Numeric = resolveNumeric(o, globalNoise)
		case domain.ColumnKindCategorical:
			var o domain.CategoricalOverride
			if len(req.CategoricalParams) > 0 {
				o = req.CategoricalParams[categoricalIdx]
			}
			categoricalIdx++
			spec.Categorical = resolveCategorical(o, defaults)
		}
		if err := s.Validate(spec); err != nil {
			return nil, err
		}
		specs[i] = spec
	}

	return specs, nil
}

func resolveNames(req *domain.TabularRequest) ([]string, error) {
	if len(req.ColTypes) > 0 && len(req.ColTypes) != req.Cols {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "",
			"col_types has %d entries, cols is %d", len(req.ColTypes), req.Cols)
	}
	if len(req.ColNames) > 0 && len(req.ColNames) != req.Cols {
		return nil, domain.NewSpecError(domain.ErrShapeMismatch, "",
			"col_names has %d entries, cols is %d", len(req.ColNames), req.Cols)
	}

	names := make([]string, req.Cols)
	seen := make(map[string]struct{}, req.Cols)
	for i := range names {
		name := DefaultColumnName(i)
		if len(req.ColNames) > 0 {
			name = strings.TrimSpace(req.ColNames[i])
		}
		if name == "" {
			return nil, domain.NewSpecError(domain.ErrInvalidParameter, "", "column %d has an empty name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, domain.NewSpecError(domain.ErrInvalidParameter, name, "duplicate column name")
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	return names, nil
}

func resolveNumeric(o domain.NumericOverride, globalNoise float64) *domain.NumericParams {
	p := &domain.NumericParams{Mean: domain.DefaultMean, Std: domain.DefaultStd, Noise: globalNoise}
	if o.Mean != nil {
		p.Mean = *o.Mean
	}
	if o.Std != nil {
		p.Std = *o.Std
	}
	if o.Noise != nil {
		p.Noise = *o.Noise
	}
	return p
}

func resolveCategorical(o domain.CategoricalOverride, defaults []string) *domain.CategoricalParams {
	p := &domain.CategoricalParams{}
	if len(o.Categories) > 0 {
		p.Categories = append([]string(nil), o.Categories...)
	} else {
		p.Categories = append([]string(nil), defaults...)
	}
	if len(o.Probabilities) > 0 {
		p.Probabilities = append([]float64(nil), o.Probabilities...)
	}
	return p
}

// ValidateCategories checks a default category list: non-empty entries,
// no duplicates. An empty list is allowed.
func ValidateCategories(values []string) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			return domain.NewSpecError(domain.ErrInvalidParameter, "", "empty default category")
		}
		if _, dup := seen[v]; dup {
			return domain.NewSpecError(domain.ErrInvalidParameter, "", "duplicate default category %q", v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// ValidateTableSpec checks spec as it would be generated: categorical
// columns without categories fall back to the spec's own defaults, then to
// fallback.
func (v *Validator) ValidateTableSpec(spec *domain.TableSpec, fallback []string) error {
	if spec.Name == "" {
		return errors.New("spec name is required")
	}
	if spec.TargetTable != "" && !IsValidIdentifier(spec.TargetTable) {
		return fmt.Errorf("invalid target_table identifier: %s", spec.TargetTable)
	}
	if err := ValidateCategories(spec.DefaultCategories); err != nil {
		return err
	}
	if _, err := v.Normalize(&spec.Request, EffectiveDefaults(spec.DefaultCategories, fallback)); err != nil {
		return err
	}
	if spec.Request.Index != nil {
		if spec.Request.Index.Start == "" || spec.Request.Index.Step == "" {
			return domain.NewSpecError(domain.ErrInvalidParameter, "", "index requires start and step")
		}
	}
	return nil
}

// EffectiveDefaults returns own when it names any category, else fallback.
func EffectiveDefaults(own, fallback []string) []string {
	if len(own) > 0 {
		return own
	}
	return fallback
}

// ValidateSchemaForTarget rejects table and column names a SQL target could
// not safely interpolate. File and document targets accept any name.
func ValidateSchemaForTarget(kind string, schema domain.TableSchema) error {
	switch kind {
	case domain.TargetKindPostgres, domain.TargetKindSQLite:
	default:
		return nil
	}
	if !IsValidIdentifier(schema.Name) {
		return fmt.Errorf("invalid table identifier for %s target: %s", kind, schema.Name)
	}
	for _, name := range schema.ColumnNames() {
		if !IsValidIdentifier(name) {
			return fmt.Errorf("invalid column identifier for %s target: %s", kind, name)
		}
	}
	return nil
}

func (v *Validator) ValidateTarget(t *domain.TargetConfig) error {
	if t.Name == "" {
		return errors.New("target name is required")
	}
	if t.Kind == "" {
		return errors.New("target kind is required")
	}
	if t.DSN == "" {
		return errors.New("target dsn is required")
	}
	if t.Database != "" && !IsValidIdentifier(t.Database) {
		return fmt.Errorf("invalid target database identifier: %s", t.Database)
	}

	switch t.Kind {
	case domain.TargetKindPostgres:
		if t.Schema != "" && !IsValidIdentifier(t.Schema) {
			return fmt.Errorf("invalid target schema identifier: %s", t.Schema)
		}
	case domain.TargetKindSQLite, domain.TargetKindElasticsearch, domain.TargetKindCSV, domain.TargetKindParquet:
		if t.Schema != "" {
			return fmt.Errorf("%s targets must not set schema", t.Kind)
		}
		if t.Database != "" {
			return fmt.Errorf("%s targets must not set database", t.Kind)
		}
	default:
		return fmt.Errorf("unsupported target kind: %s", t.Kind)
	}

	return nil
}

// ValidateRunRequest checks req on its own; defaults are the categories an
// inline spec falls back to when it brings none.
func (v *Validator) ValidateRunRequest(req *domain.RunRequest, defaults []string) error {
	hasSpecID := req.SpecID != ""
	hasSpec := req.Spec != nil

	if !hasSpecID && !hasSpec {
		return errors.New("either spec_id or spec must be provided")
	}
	if hasSpecID && hasSpec {
		return errors.New("only one of spec_id or spec must be provided")
	}

	hasTargetID := req.TargetID != ""
	hasTarget := req.Target != nil

	if !hasTargetID && !hasTarget {
		return errors.New("either target_id or target must be provided")
	}
	if hasTargetID && hasTarget {
		return errors.New("only one of target_id or target must be provided")
	}

	if req.Mode == "" {
		return errors.New("mode is required")
	}
	if !IsValidMode(req.Mode) {
		return fmt.Errorf("invalid mode: %s", req.Mode)
	}

	if req.Rows != nil && *req.Rows <= 0 {
		return fmt.Errorf("rows must be > 0, got %d", *req.Rows)
	}
	if req.TargetTable != "" && !IsValidIdentifier(req.TargetTable) {
		return fmt.Errorf("invalid target_table identifier: %s", req.TargetTable)
	}

	if req.Spec != nil {
		if err := v.ValidateTableSpec(req.Spec, defaults); err != nil {
			return fmt.Errorf("spec validation failed: %w", err)
		}
	}
	if req.Target != nil {
		if err := v.ValidateTarget(req.Target); err != nil {
			return fmt.Errorf("target validation failed: %w", err)
		}
	}

	return nil
}

func IsValidMode(mode string) bool {
	switch mode {
	case domain.TableModeCreate, domain.TableModeTruncate, domain.TableModeAppend:
		return true
	default:
		return false
	}
}
