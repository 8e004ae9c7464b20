package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds named providers and a default selection.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	defaultName string
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

func (r *Registry) Register(name string, p Provider) error {
	if r == nil {
		return fmt.Errorf("llm: nil registry")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("llm: empty provider name")
	}
	if p == nil {
		return fmt.Errorf("llm: nil provider %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[name] = p
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

func (r *Registry) SetDefault(name string) error {
	if r == nil {
		return fmt.Errorf("llm: nil registry")
	}
	name = strings.ToLower(strings.TrimSpace(name))

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("llm: unknown provider %q", name)
	}
	r.defaultName = name
	return nil
}

func (r *Registry) Get(name string) (Provider, error) {
	if r == nil {
		return nil, fmt.Errorf("llm: nil registry")
	}
	name = strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q", name)
	}
	return p, nil
}

func (r *Registry) Default() (Provider, error) {
	return r.Get("")
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
