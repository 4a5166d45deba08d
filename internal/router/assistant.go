package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/protoslabs/cellchat/internal/domain"
)

// UnavailableMessage is returned when both the backend and the local
// assistant fail. It is the floor of the degradation ladder: a turn never
// surfaces a transport error to the user.
const UnavailableMessage = "The assistant is temporarily unavailable. Your work is saved; please try again in a moment."

// Assistant produces a response without the agent backend.
type Assistant interface {
	Respond(ctx context.Context, text string, snapshot domain.ContextSnapshot) (string, error)
}

// LocalAssistant is a keyword-driven canned responder used while the
// backend is unhealthy. Responses are degraded but stay on topic and
// reference the session's selections where it helps.
type LocalAssistant struct{}

// NewLocalAssistant returns the built-in degraded responder.
func NewLocalAssistant() *LocalAssistant { return &LocalAssistant{} }

var _ Assistant = (*LocalAssistant)(nil)

// Respond picks a canned answer by keyword group. It never fails; the
// error return exists so alternative assistants can report one.
func (a *LocalAssistant) Respond(_ context.Context, text string, snapshot domain.ContextSnapshot) (string, error) {
	s := " " + normalize(text) + " "

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(s, " "+w+" ") {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("cathode", "nmc811", "lco", "nca"):
		return a.withSelection(snapshot, "cathode",
			"For cathodes, NMC811 offers high energy density, LCO is a stable classic for small cells, and NCA balances power and capacity. Open the Cathode Materials page to compare them."), nil
	case containsAny("anode", "graphite", "silicon", "tin"):
		return a.withSelection(snapshot, "anode",
			"Graphite is the dependable anode choice; silicon pushes capacity higher at the cost of swelling; tin sits in between. The Anode Materials page has the details."), nil
	case containsAny("electrolyte", "lipf6", "litfsi"):
		return a.withSelection(snapshot, "electrolyte",
			"LiPF6 in EC:DMC is the standard electrolyte; EC:EMC improves low-temperature behavior and LiTFSI trades conductivity for stability."), nil
	case containsAny("separator"):
		return a.withSelection(snapshot, "separator",
			"PE and PP separators are single-layer workhorses; the PE/PP trilayer adds a thermal shutdown margin."), nil
	case containsAny("simulate", "simulation", "performance", "energy", "capacity"):
		return "Simulations need a complete design: cathode, anode, electrolyte, separator, and a form factor. Finish those selections and open Simulation Results to run one.", nil
	case containsAny("save", "load", "library"):
		return "The design library stores complete cell designs for later reuse. Finish the current design first, then save it from the Cell Design page.", nil
	case containsAny("design", "cell", "build"):
		return "A cell design combines a cathode, an anode, an electrolyte, a separator, and a form factor. Start from the Material Selector and work through each page.", nil
	case containsAny("help", "hello", "hi", "start"):
		return "I can help you design battery cells: pick materials, choose a form factor, run simulations, and manage your design library. What would you like to work on?", nil
	default:
		return "I can help with cell design, material selection, simulations, and your design library. Try asking about cathode materials or say \"go to cell design\".", nil
	}
}

// withSelection appends the session's current pick for a slot when one
// exists, so degraded answers still feel situated.
func (a *LocalAssistant) withSelection(snapshot domain.ContextSnapshot, slot, base string) string {
	if current, ok := snapshot.Materials[slot]; ok {
		return fmt.Sprintf("%s You currently have %s selected.", base, current)
	}
	return base
}
