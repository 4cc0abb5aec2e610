// Package tools provides the capability registry consumed by the action
// executor: tools (side-effecting integrations) and skills (structured-memory
// routines), both invoked by action type name.
package tools

import (
	"context"
	"sort"
)

// RunFunc executes one capability. Params are the typed parameters decoded by
// DecodeParams for the capability's action type.
type RunFunc func(ctx context.Context, params any) (any, error)

// Capability is one registered tool or skill.
type Capability struct {
	Name        string
	Description string
	Run         RunFunc
}

// Registry holds tools and skills for one process (or one test). It is built
// once at startup and injected; there is no process-wide singleton. Lookups
// after construction are read-only, so concurrent pipeline runs may share it.
type Registry struct {
	tools  map[string]Capability
	skills map[string]Capability
}

func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Capability),
		skills: make(map[string]Capability),
	}
}

func (r *Registry) RegisterTool(c Capability) {
	r.tools[c.Name] = c
}

func (r *Registry) RegisterSkill(c Capability) {
	r.skills[c.Name] = c
}

// Tool looks up a registered tool by action type.
func (r *Registry) Tool(name string) (Capability, bool) {
	c, ok := r.tools[name]
	return c, ok
}

// Skill looks up a registered skill by action type.
func (r *Registry) Skill(name string) (Capability, bool) {
	c, ok := r.skills[name]
	return c, ok
}

// ActionTypes returns all registered action types, sorted. Used to build the
// planner's action vocabulary.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.tools)+len(r.skills))
	for name := range r.tools {
		types = append(types, name)
	}
	for name := range r.skills {
		if _, dup := r.tools[name]; !dup {
			types = append(types, name)
		}
	}
	sort.Strings(types)
	return types
}
