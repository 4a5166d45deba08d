package router

import (
	"fmt"
	"strings"

	"github.com/protoslabs/cellchat/internal/domain"
)

// Interpreter recognizes direct navigation and selection commands with a
// fixed set of phrase rules. It is fully deterministic and touches no
// network; a recognized command short-circuits classification entirely.
type Interpreter struct{}

// NewInterpreter returns the command interpreter.
func NewInterpreter() *Interpreter { return &Interpreter{} }

// pageAliases maps normalized page phrases to screens. Keys are matched
// against the remainder of a "go to" / "show" / "open" command.
var pageAliases = map[string]domain.Screen{
	"home":                  domain.ScreenHome,
	"main":                  domain.ScreenHome,
	"material selector":     domain.ScreenMaterialSelector,
	"materials":             domain.ScreenMaterialSelector,
	"cathode materials":     domain.ScreenCathodeMaterials,
	"cathodes":              domain.ScreenCathodeMaterials,
	"cathode":               domain.ScreenCathodeMaterials,
	"anode materials":       domain.ScreenAnodeMaterials,
	"anodes":                domain.ScreenAnodeMaterials,
	"anode":                 domain.ScreenAnodeMaterials,
	"electrolyte materials": domain.ScreenElectrolyteMaterials,
	"electrolytes":          domain.ScreenElectrolyteMaterials,
	"electrolyte":           domain.ScreenElectrolyteMaterials,
	"separator materials":   domain.ScreenSeparatorMaterials,
	"separators":            domain.ScreenSeparatorMaterials,
	"separator":             domain.ScreenSeparatorMaterials,
	"cell design":           domain.ScreenCellDesign,
	"cell designer":         domain.ScreenCellDesign,
	"design":                domain.ScreenCellDesign,
	"simulation results":    domain.ScreenSimulationResults,
	"simulation":            domain.ScreenSimulationResults,
	"results":               domain.ScreenSimulationResults,
}

// screenLabels gives human-readable page names for replies.
var screenLabels = map[domain.Screen]string{
	domain.ScreenHome:                 "Home",
	domain.ScreenMaterialSelector:     "Material Selector",
	domain.ScreenCathodeMaterials:     "Cathode Materials",
	domain.ScreenAnodeMaterials:       "Anode Materials",
	domain.ScreenElectrolyteMaterials: "Electrolyte Materials",
	domain.ScreenSeparatorMaterials:   "Separator Materials",
	domain.ScreenCellDesign:           "Cell Design",
	domain.ScreenSimulationResults:    "Simulation Results",
}

// normalize lowercases, strips trailing punctuation, and collapses
// whitespace so phrase matching is stable across input styles.
func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRight(s, ".!?")
	return strings.Join(strings.Fields(s), " ")
}

// Interpret matches the input against the command rules in fixed priority
// order: selection first (most specific), then clear, then navigation.
// Unrecognized input returns ok=false and flows on to the classifier.
// A "select" with an unknown material also returns ok=false rather than
// erroring, so free-form questions starting with "select" still reach an
// agent.
func (in *Interpreter) Interpret(text string) (DirectCommand, bool) {
	s := normalize(text)
	if s == "" {
		return DirectCommand{}, false
	}

	for _, prefix := range []string{"select ", "choose "} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			if cmd, ok := interpretSelection(rest); ok {
				return cmd, true
			}
			return DirectCommand{}, false
		}
	}

	switch s {
	case "clear chat", "clear the chat", "reset chat":
		return DirectCommand{
			Rule:  "clear-chat",
			Reply: "Chat cleared. How can I help with your cell development?",
			Clear: true,
		}, true
	case "go home", "home", "main", "go to home", "go to main":
		return navigationCommand(domain.ScreenHome), true
	}

	for _, prefix := range []string{"go to ", "show ", "open ", "navigate to "} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			rest = strings.TrimPrefix(rest, "the ")
			rest = strings.TrimSuffix(rest, " page")
			if screen, ok := pageAliases[rest]; ok {
				return navigationCommand(screen), true
			}
			return DirectCommand{}, false
		}
	}

	return DirectCommand{}, false
}

func navigationCommand(screen domain.Screen) DirectCommand {
	return DirectCommand{
		Rule:  "navigate:" + string(screen),
		Reply: fmt.Sprintf("Navigating to the %s page.", screenLabels[screen]),
		Delta: domain.ContextDelta{Screen: screen},
	}
}

// interpretSelection resolves "select <name>" against the material catalog
// and the form-factor list. Selecting a material also navigates to the page
// the material belongs to, mirroring what the host UI does on click.
func interpretSelection(name string) (DirectCommand, bool) {
	if slot, canonical, ok := domain.LookupMaterial(name); ok {
		return DirectCommand{
			Rule:  "select-material:" + string(slot),
			Reply: fmt.Sprintf("Selected %s as the %s material.", canonical, slot),
			Delta: domain.ContextDelta{
				Screen:    domain.ScreenForSlot(slot),
				Materials: map[string]string{string(slot): canonical},
			},
		}, true
	}
	if ff, ok := domain.IsFormFactor(name); ok {
		return DirectCommand{
			Rule:  "select-form-factor",
			Reply: fmt.Sprintf("Selected the %s form factor.", ff),
			Delta: domain.ContextDelta{
				Screen:    domain.ScreenCellDesign,
				Decisions: map[string]string{"form_factor": ff},
			},
		}, true
	}
	return DirectCommand{}, false
}
