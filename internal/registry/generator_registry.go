package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/generators"
)

// SamplerRegistry maps column type tokens to samplers.
type SamplerRegistry struct {
	mu       sync.RWMutex
	samplers map[string]generators.Sampler
}

func NewSamplerRegistry() *SamplerRegistry {
	return &SamplerRegistry{
		samplers: make(map[string]generators.Sampler),
	}
}

func (r *SamplerRegistry) Register(token string, s generators.Sampler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samplers[normalizeToken(token)] = s
}

// Get resolves a column type token (case-insensitive, surrounding spaces
// ignored).
func (r *SamplerRegistry) Get(token string) (generators.Sampler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.samplers[normalizeToken(token)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumnType, token)
	}
	return s, nil
}

func (r *SamplerRegistry) ForKind(kind domain.ColumnKind) (generators.Sampler, error) {
	return r.Get(string(kind))
}

func (r *SamplerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.samplers))
	for name := range r.samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeToken(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

func DefaultSamplerRegistry() *SamplerRegistry {
	r := NewSamplerRegistry()
	r.Register(string(domain.ColumnKindNumeric), &generators.NumericSampler{})
	r.Register(string(domain.ColumnKindCategorical), &generators.CategoricalSampler{})
	return r
}
