// Package domain contains core domain types for the cell development chat router.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownScreen is returned when a merge names a screen outside the
// enumerated set.
var ErrUnknownScreen = errors.New("unknown screen")

// Screen identifies a page of the host application.
type Screen string

const (
	ScreenHome                 Screen = "home"
	ScreenMaterialSelector     Screen = "material_selector"
	ScreenCathodeMaterials     Screen = "cathode_materials"
	ScreenAnodeMaterials       Screen = "anode_materials"
	ScreenElectrolyteMaterials Screen = "electrolyte_materials"
	ScreenSeparatorMaterials   Screen = "separator_materials"
	ScreenCellDesign           Screen = "cell_design"
	ScreenSimulationResults    Screen = "simulation_results"
)

var validScreens = map[Screen]struct{}{
	ScreenHome:                 {},
	ScreenMaterialSelector:     {},
	ScreenCathodeMaterials:     {},
	ScreenAnodeMaterials:       {},
	ScreenElectrolyteMaterials: {},
	ScreenSeparatorMaterials:   {},
	ScreenCellDesign:           {},
	ScreenSimulationResults:    {},
}

// Valid reports whether s is one of the enumerated screens.
func (s Screen) Valid() bool {
	_, ok := validScreens[s]
	return ok
}

// Screens returns all valid screen identifiers.
func Screens() []Screen {
	out := make([]Screen, 0, len(validScreens))
	for s := range validScreens {
		out = append(out, s)
	}
	return out
}

// ContextSnapshot is an immutable view of a session's workflow state at a
// point in time. It is produced by reads and replaced wholesale by Merge;
// callers must not mutate the contained maps.
type ContextSnapshot struct {
	Screen    Screen            `json:"screen"`
	Materials map[string]string `json:"materials"` // slot -> material id
	Decisions map[string]string `json:"decisions"` // workflow step -> decision
	Timestamp time.Time         `json:"timestamp"`
}

// ContextDelta describes updates to fold into a snapshot. Zero-valued fields
// leave the prior value in place.
type ContextDelta struct {
	Screen    Screen            `json:"screen,omitempty"`
	Materials map[string]string `json:"materials,omitempty"`
	Decisions map[string]string `json:"decisions,omitempty"`
}

// Empty reports whether the delta carries no updates.
func (d ContextDelta) Empty() bool {
	return d.Screen == "" && len(d.Materials) == 0 && len(d.Decisions) == 0
}

// NewSnapshot returns the initial workflow state for a fresh session.
func NewSnapshot(now time.Time) ContextSnapshot {
	return ContextSnapshot{
		Screen:    ScreenHome,
		Materials: map[string]string{},
		Decisions: map[string]string{},
		Timestamp: now,
	}
}

// Merge returns a new snapshot with the delta applied. Merging is
// monotonic-additive: a delta that omits a field never erases a previously
// set value, and prior map entries survive unless overwritten by key.
func (c ContextSnapshot) Merge(d ContextDelta, now time.Time) (ContextSnapshot, error) {
	if d.Screen != "" && !d.Screen.Valid() {
		return c, fmt.Errorf("%w: %q", ErrUnknownScreen, d.Screen)
	}

	next := ContextSnapshot{
		Screen:    c.Screen,
		Materials: make(map[string]string, len(c.Materials)+len(d.Materials)),
		Decisions: make(map[string]string, len(c.Decisions)+len(d.Decisions)),
		Timestamp: now,
	}
	for k, v := range c.Materials {
		next.Materials[k] = v
	}
	for k, v := range c.Decisions {
		next.Decisions[k] = v
	}

	if d.Screen != "" {
		next.Screen = d.Screen
	}
	for k, v := range d.Materials {
		next.Materials[k] = v
	}
	for k, v := range d.Decisions {
		next.Decisions[k] = v
	}
	return next, nil
}
