package core

import "sort"

// TableRegistry maps rendered table names to table ids for one container.
//
// It is built fresh by scanning the container at the start of each phase and
// passed explicitly to whatever needs it; nothing caches it across phases.
type TableRegistry struct {
	ids map[string]string
}

// NewTableRegistry creates an empty registry.
func NewTableRegistry() TableRegistry {
	return TableRegistry{ids: make(map[string]string)}
}

// Add records a table. When two tables share a name the first one wins,
// matching the order the store returned them.
func (r TableRegistry) Add(name, id string) {
	if _, ok := r.ids[name]; ok {
		return
	}
	r.ids[name] = id
}

// ID returns the id of the named table.
func (r TableRegistry) ID(name string) (string, bool) {
	id, ok := r.ids[name]
	return id, ok
}

// Has reports whether the named table exists.
func (r TableRegistry) Has(name string) bool {
	_, ok := r.ids[name]
	return ok
}

// Len returns the number of registered tables.
func (r TableRegistry) Len() int {
	return len(r.ids)
}

// Names returns all registered names in sorted order.
func (r TableRegistry) Names() []string {
	names := make([]string, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
