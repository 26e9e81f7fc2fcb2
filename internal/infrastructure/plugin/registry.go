// Package plugin implements an in-memory ports.PluginRegistry for venue
// adapters, keyed by venue alias rather than by a single action type, since
// one adapter commonly dispatches several action kinds (spec.md §4.9.7).
package plugin

import (
	"fmt"
	"sort"
	"sync"

	domainplugin "github.com/grimoire-lang/grimoire/internal/domain/plugin"
	"github.com/grimoire-lang/grimoire/internal/ports"
)

// Registry implements ports.PluginRegistry with an in-memory map keyed by
// venue alias (Metadata.ID).
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]ports.ActionExecutor
	metadata map[string]domainplugin.Metadata
}

// NewRegistry creates a new, empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]ports.ActionExecutor),
		metadata: make(map[string]domainplugin.Metadata),
	}
}

// Register stores an adapter keyed by its metadata ID (the venue alias).
func (r *Registry) Register(a ports.ActionExecutor) error {
	if a == nil {
		return fmt.Errorf("adapter is nil")
	}
	meta := a.Metadata()
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("adapter metadata invalid: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[meta.ID]; exists {
		return fmt.Errorf("adapter for venue %q already registered", meta.ID)
	}
	r.adapters[meta.ID] = a
	r.metadata[meta.ID] = meta

	return nil
}

// RegisterFactory registers an adapter built by a factory function. The
// constructed adapter's Metadata().ID must match venue.
func (r *Registry) RegisterFactory(venue string, factory func() (ports.ActionExecutor, error)) error {
	if venue == "" {
		return fmt.Errorf("venue alias is required")
	}
	if factory == nil {
		return fmt.Errorf("adapter factory is nil for venue %q", venue)
	}

	adapter, err := factory()
	if err != nil {
		return fmt.Errorf("construct adapter %q: %w", venue, err)
	}
	if adapter == nil {
		return fmt.Errorf("adapter factory returned nil for venue %q", venue)
	}

	meta := adapter.Metadata()
	if meta.ID == "" {
		return fmt.Errorf("adapter metadata id is required for venue %q", venue)
	}
	if meta.ID != venue {
		return fmt.Errorf("adapter metadata id %q does not match registration venue %q", meta.ID, venue)
	}

	return r.Register(adapter)
}

// ValidateDependencies ensures every adapter's declared dependencies (other
// venue aliases it requires to be present, e.g. a router adapter that
// delegates legs to per-chain adapters) are registered and acyclic.
func (r *Registry) ValidateDependencies() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := make(map[string][]string, len(r.metadata))
	for venue, meta := range r.metadata {
		deps := make([]string, 0, len(meta.Dependencies))
		for _, dep := range meta.Dependencies {
			if _, ok := r.metadata[dep]; !ok {
				return &domainplugin.DomainError{
					Code:    domainplugin.ErrCodeDependency,
					Message: "adapter dependency not registered",
					Context: map[string]interface{}{
						"venue":      venue,
						"dependency": dep,
					},
				}
			}
			deps = append(deps, dep)
		}
		graph[venue] = deps
	}

	if cycle := detectCycle(graph); len(cycle) > 0 {
		return &domainplugin.DomainError{
			Code:    domainplugin.ErrCodeCycle,
			Message: "circular adapter dependency detected",
			Context: map[string]interface{}{"cycle": cycle},
		}
	}

	return nil
}

// InitializePlugins validates the dependency graph is acyclic and acts as the
// extension point for future adapter warm-up hooks (e.g. opening RPC
// connections in dependency order).
func (r *Registry) InitializePlugins() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := make(map[string][]string, len(r.metadata))
	for venue, meta := range r.metadata {
		graph[venue] = append([]string(nil), meta.Dependencies...)
	}

	if _, err := topologicalOrder(graph); err != nil {
		return err
	}
	return nil
}

// GetForDependent retrieves a declared dependency adapter for dependent,
// ensuring the relationship was declared in dependent's metadata.
func (r *Registry) GetForDependent(dependent string, depVenue string) (ports.ActionExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.metadata[dependent]
	if !ok {
		return nil, &domainplugin.DomainError{
			Code:    domainplugin.ErrCodeNotFound,
			Message: "dependent adapter not registered",
			Context: map[string]interface{}{"venue": dependent},
		}
	}

	adapter, ok := r.adapters[depVenue]
	if !ok {
		return nil, &domainplugin.DomainError{
			Code:    domainplugin.ErrCodeNotFound,
			Message: "dependency adapter not registered",
			Context: map[string]interface{}{
				"venue":      dependent,
				"dependency": depVenue,
			},
		}
	}

	declared := false
	for _, dep := range meta.Dependencies {
		if dep == depVenue {
			declared = true
			break
		}
	}
	if !declared {
		return nil, &domainplugin.DomainError{
			Code:    domainplugin.ErrCodeDependency,
			Message: "undeclared adapter dependency",
			Context: map[string]interface{}{
				"venue":      dependent,
				"dependency": depVenue,
			},
		}
	}

	return adapter, nil
}

// Get returns the adapter registered for venue.
func (r *Registry) Get(venue string) (ports.ActionExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[venue]
	if !ok {
		return nil, &domainplugin.DomainError{
			Code:    domainplugin.ErrCodeNotFound,
			Message: "adapter not registered",
			Context: map[string]interface{}{"venue": venue},
		}
	}
	return adapter, nil
}

// GetForKind returns the adapter registered for venue, failing if it does not
// declare support for kind. An ActionStep carries both: venue is the alias an
// `on <asset> at <venue>` or skill block names, kind is the action verb the
// method-call lowering table (spec.md §4.3.7) produced.
func (r *Registry) GetForKind(venue string, kind domainplugin.Kind) (ports.ActionExecutor, error) {
	adapter, err := r.Get(venue)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	meta := r.metadata[venue]
	r.mu.RUnlock()

	if !meta.SupportsKind(kind) {
		return nil, &domainplugin.DomainError{
			Code:    domainplugin.ErrCodeValidation,
			Message: "adapter does not support action kind",
			Context: map[string]interface{}{
				"venue": venue,
				"kind":  string(kind),
			},
		}
	}
	return adapter, nil
}

// List returns all registered adapters, ordered by venue alias.
func (r *Registry) List() []ports.ActionExecutor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	venues := make([]string, 0, len(r.adapters))
	for v := range r.adapters {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	result := make([]ports.ActionExecutor, 0, len(venues))
	for _, v := range venues {
		result = append(result, r.adapters[v])
	}
	return result
}

var _ ports.PluginRegistry = (*Registry)(nil)

type visitState int

const (
	stateUnvisited visitState = iota
	stateVisiting
	stateVisited
)

func detectCycle(graph map[string][]string) []string {
	state := make(map[string]visitState, len(graph))
	stack := make([]string, 0, len(graph))
	var cycle []string

	var dfs func(string) bool
	dfs = func(node string) bool {
		state[node] = stateVisiting
		stack = append(stack, node)

		for _, dep := range graph[node] {
			switch state[dep] {
			case stateUnvisited:
				if dfs(dep) {
					return true
				}
			case stateVisiting:
				idx := indexOf(stack, dep)
				if idx >= 0 {
					cycle = append([]string(nil), stack[idx:]...)
					cycle = append(cycle, dep)
				} else {
					cycle = []string{dep}
				}
				return true
			}
		}

		stack = stack[:len(stack)-1]
		state[node] = stateVisited
		return false
	}

	for node := range graph {
		if state[node] == stateUnvisited {
			if dfs(node) {
				return cycle
			}
		}
	}
	return nil
}

func topologicalOrder(graph map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(graph))
	for node := range graph {
		inDegree[node] = 0
	}
	for node, deps := range graph {
		inDegree[node] = len(deps)
		for _, dep := range deps {
			if _, ok := inDegree[dep]; !ok {
				inDegree[dep] = 0
			}
		}
	}

	queue := make([]string, 0, len(inDegree))
	for node, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, node)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(inDegree))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for dependent, deps := range graph {
			for _, dep := range deps {
				if dep == node {
					inDegree[dependent]--
					if inDegree[dependent] == 0 {
						queue = append(queue, dependent)
					}
				}
			}
		}
	}

	if len(order) != len(inDegree) {
		cycle := detectCycle(graph)
		return nil, &domainplugin.DomainError{
			Code:    domainplugin.ErrCodeCycle,
			Message: "circular adapter dependency detected",
			Context: map[string]interface{}{"cycle": cycle},
		}
	}

	return order, nil
}

func indexOf(stack []string, target string) int {
	for i, v := range stack {
		if v == target {
			return i
		}
	}
	return -1
}
