// Package registry holds the catalog of detection rules. A Registry is an
// explicit instance passed into the engine and pipeline constructors, so
// tests can build isolated rule sets without ambient global state.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/vueadmin/vibeguard/pkg/types"
)

var (
	// ErrDuplicateRuleID is returned when registering an id twice.
	// Duplicate registration is a configuration error, not a runtime
	// condition, so callers should treat it as fatal.
	ErrDuplicateRuleID = errors.New("duplicate rule id")

	// ErrRuleNotFound is returned when looking up an unknown id.
	ErrRuleNotFound = errors.New("rule not found")
)

// Stats summarizes the registry population.
type Stats struct {
	Total   int
	Enabled int
}

// Registry owns all registered rules. Reads may run concurrently;
// writes (registration, enable toggles) are serialized.
type Registry struct {
	mu      sync.RWMutex
	rules   []*types.Rule // registration order
	byID    map[string]*types.Rule
	enabled map[string]bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:    make(map[string]*types.Rule),
		enabled: make(map[string]bool),
	}
}

// Register adds a rule. The registry takes ownership of the rule; the
// rule's Enabled field only seeds the initial toggle state.
func (r *Registry) Register(rule *types.Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule has empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRuleID, rule.ID)
	}

	if rule.StructuralID == "" {
		rule.StructuralID = rule.ComputeStructuralID()
	}

	r.rules = append(r.rules, rule)
	r.byID[rule.ID] = rule
	r.enabled[rule.ID] = rule.Enabled
	return nil
}

// RegisterAll registers rules in order, stopping at the first failure.
func (r *Registry) RegisterAll(rules []*types.Rule) error {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the rule with the given id.
func (r *Registry) Get(id string) (*types.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return rule, nil
}

// All returns a restartable sequence of rules in registration order.
// The sequence iterates over a snapshot, so concurrent registration does
// not affect an in-progress iteration.
func (r *Registry) All() iter.Seq[*types.Rule] {
	r.mu.RLock()
	snapshot := make([]*types.Rule, len(r.rules))
	copy(snapshot, r.rules)
	r.mu.RUnlock()

	return func(yield func(*types.Rule) bool) {
		for _, rule := range snapshot {
			if !yield(rule) {
				return
			}
		}
	}
}

// Enabled returns the enabled rules in registration order.
func (r *Registry) Enabled() []*types.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*types.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if r.enabled[rule.ID] {
			result = append(result, rule)
		}
	}
	return result
}

// SetEnabled toggles a rule at runtime.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	r.enabled[id] = enabled
	return nil
}

// IsEnabled reports the current toggle state. Unknown ids are disabled.
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[id]
}

// Stats returns total and enabled rule counts.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Total: len(r.rules)}
	for _, on := range r.enabled {
		if on {
			s.Enabled++
		}
	}
	return s
}
