package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmrzaf/tabgen/internal/domain"
)

// parseNumericParam reads "mean:std:noise". Any field may be left empty to
// keep its default, and "-" keeps all three.
func parseNumericParam(s string) (domain.NumericOverride, error) {
	var o domain.NumericOverride
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return o, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return o, fmt.Errorf("numeric param %q: want mean:std:noise", s)
	}
	targets := []**float64{&o.Mean, &o.Std, &o.Noise}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return o, fmt.Errorf("numeric param %q: %w", s, err)
		}
		*targets[i] = &v
	}
	return o, nil
}

// parseCategoricalParam reads "A|B|C=0.2|0.5|0.3". Without "=" the
// categories are drawn uniformly; "-" falls back to the default categories.
func parseCategoricalParam(s string) (domain.CategoricalOverride, error) {
	var o domain.CategoricalOverride
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return o, nil
	}
	cats, probs, hasProbs := strings.Cut(s, "=")
	for _, c := range strings.Split(cats, "|") {
		o.Categories = append(o.Categories, strings.TrimSpace(c))
	}
	if !hasProbs {
		return o, nil
	}
	for _, p := range strings.Split(probs, "|") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return o, fmt.Errorf("categorical param %q: %w", s, err)
		}
		o.Probabilities = append(o.Probabilities, v)
	}
	return o, nil
}
