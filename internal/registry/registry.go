// Package registry holds the static catalog of backend agents.
package registry

import (
	"fmt"
	"sort"
)

// Agent identifiers as known to the backend.
const (
	AgentTaskCoordinator = "task_coordinator"
	AgentCellDesigner    = "cell_designer"
	AgentCellLibrary     = "cell_library"
	AgentCellSimulation  = "cell_simulation"
)

// DefaultAgentID is the fallback-of-last-resort target: classification ties
// and below-threshold scores both land here.
const DefaultAgentID = AgentTaskCoordinator

// Descriptor describes one backend agent. Descriptors are loaded once at
// startup and never mutated, so they are safe for concurrent reads.
type Descriptor struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Capabilities []string `json:"capabilities"`
	Endpoint     string   `json:"endpoint"`
	Priority     int      `json:"priority"`
}

// Registry is an immutable id -> Descriptor mapping.
type Registry struct {
	byID  map[string]Descriptor
	order []string
}

// New builds a registry from descriptors, rejecting duplicates and blanks.
func New(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("agent descriptor with empty id")
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", d.ID)
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	if _, ok := r.byID[DefaultAgentID]; !ok {
		return nil, fmt.Errorf("registry is missing the default agent %q", DefaultAgentID)
	}
	return r, nil
}

// Get returns the descriptor for an agent id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Default returns the descriptor of the fallback-of-last-resort agent.
func (r *Registry) Default() Descriptor {
	return r.byID[DefaultAgentID]
}

// All returns descriptors in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns the sorted agent identifiers.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Defaults returns the built-in descriptors mirroring the multi-agent
// backend. Capability phrases are ordered most specific first; longer
// phrases score higher in the classifier.
func Defaults() []Descriptor {
	return []Descriptor{
		{
			ID:    AgentTaskCoordinator,
			Label: "Task Coordinator",
			Capabilities: []string{
				"cell design workflow",
				"design workflow",
				"plan the design",
				"coordinate",
				"workflow",
				"plan",
				"task",
				"help",
			},
			Endpoint: "/chat",
			Priority: 10,
		},
		{
			ID:    AgentCellDesigner,
			Label: "Cell Designer",
			Capabilities: []string{
				"design a cell",
				"bill of materials",
				"cell architecture",
				"form factor",
				"cathode material",
				"anode material",
				"electrode",
				"electrolyte",
				"separator",
				"casing",
				"design",
				"cylindrical",
				"prismatic",
				"pouch",
			},
			Endpoint: "/chat",
			Priority: 5,
		},
		{
			ID:    AgentCellLibrary,
			Label: "Cell Library Manager",
			Capabilities: []string{
				"saved cell designs",
				"design library",
				"save the design",
				"load a design",
				"stored designs",
				"library",
				"save",
				"load",
				"retrieve",
				"store",
			},
			Endpoint: "/chat",
			Priority: 3,
		},
		{
			ID:    AgentCellSimulation,
			Label: "Cell Simulator",
			Capabilities: []string{
				"run a simulation",
				"simulate the cell",
				"performance analysis",
				"energy density",
				"cycle life",
				"capacity estimate",
				"simulation",
				"simulate",
				"dcir",
				"power",
				"performance",
			},
			Endpoint: "/chat",
			Priority: 4,
		},
	}
}
