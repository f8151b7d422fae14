package db

import (
	"database/sql"
	"fmt"
	"sort"
)

// Registry resolves a repository selector (tenant name) to its database
// handle. The deployment keeps each tenant's data in a separate SQLite
// file; services are handed a handle explicitly instead of reaching for
// global per-tenant state.
type Registry struct {
	handles map[string]*sql.DB
}

// OpenRegistry opens and migrates one database per configured tenant.
func OpenRegistry(tenants map[string]string) (*Registry, error) {
	r := &Registry{handles: make(map[string]*sql.DB)}
	for name, path := range tenants {
		handle, err := Open(path)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("opening tenant %q: %w", name, err)
		}
		if err := Migrate(handle); err != nil {
			handle.Close()
			r.Close()
			return nil, fmt.Errorf("migrating tenant %q: %w", name, err)
		}
		r.handles[name] = handle
	}
	return r, nil
}

// Get returns the handle for a selector, or an error for an unknown one.
func (r *Registry) Get(selector string) (*sql.DB, error) {
	handle, ok := r.handles[selector]
	if !ok {
		return nil, fmt.Errorf("unknown tenant %q", selector)
	}
	return handle, nil
}

// Selectors returns all registered selectors in stable order.
func (r *Registry) Selectors() []string {
	selectors := make([]string, 0, len(r.handles))
	for name := range r.handles {
		selectors = append(selectors, name)
	}
	sort.Strings(selectors)
	return selectors
}

// Close closes every handle. Errors are ignored; this runs at shutdown.
func (r *Registry) Close() {
	for _, handle := range r.handles {
		handle.Close()
	}
}

// NewTestRegistry wraps existing handles, for tests that build their own
// databases.
func NewTestRegistry(handles map[string]*sql.DB) *Registry {
	return &Registry{handles: handles}
}
