package config

import "sync"

// Result is the outcome of handing one key/value pair to a registered
// section handler.
type Result int

const (
	// OK means the key was recognized and the value accepted.
	OK Result = iota
	// InvalidKey means the section has no handler for this key.
	InvalidKey
	// InvalidValue means the key was recognized but the value could not
	// be parsed or was out of range.
	InvalidValue
)

// SectionHandler validates and applies a single key/value pair within one
// named configuration section. It is the shape every section (the image
// list facade included) registers against the Registry.
type SectionHandler func(key, value string) Result

// Registry is a configuration-registry collaborator: components register a
// handler for a named section once, and whatever parses the on-disk
// config format feeds it key/value pairs one at a time as they're
// encountered, without either side needing to know the other's internal
// representation.
//
// This sits alongside, not instead of, Manager: Manager owns the JSON
// settings file as a whole typed struct; Registry is for collaborators
// that want looser, per-key validation against free-form sections.
type Registry struct {
	mu       sync.Mutex
	sections map[string]SectionHandler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sections: make(map[string]SectionHandler)}
}

// Register installs handler as the section's handler, replacing any
// previous registration.
func (r *Registry) Register(section string, handler SectionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections[section] = handler
}

// Apply feeds one key/value pair to the named section's handler. A section
// with no registered handler is reported as InvalidKey: there is nothing
// else to blame the failure on.
func (r *Registry) Apply(section, key, value string) Result {
	r.mu.Lock()
	handler, ok := r.sections[section]
	r.mu.Unlock()
	if !ok {
		return InvalidKey
	}
	return handler(key, value)
}
