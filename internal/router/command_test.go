package router

import (
	"testing"

	"github.com/protoslabs/cellchat/internal/domain"
)

func TestInterpretNavigation(t *testing.T) {
	t.Parallel()
	in := NewInterpreter()

	cases := []struct {
		input string
		want  domain.Screen
	}{
		{"go home", domain.ScreenHome},
		{"Home", domain.ScreenHome},
		{"main", domain.ScreenHome},
		{"go to cathode materials", domain.ScreenCathodeMaterials},
		{"Go To Cathode Materials", domain.ScreenCathodeMaterials},
		{"show simulation results", domain.ScreenSimulationResults},
		{"open the cell design page", domain.ScreenCellDesign},
		{"navigate to anode materials", domain.ScreenAnodeMaterials},
		{"show electrolytes", domain.ScreenElectrolyteMaterials},
		{"go to the material selector", domain.ScreenMaterialSelector},
		{"open separators", domain.ScreenSeparatorMaterials},
	}
	for _, tc := range cases {
		cmd, ok := in.Interpret(tc.input)
		if !ok {
			t.Errorf("Interpret(%q) not recognized", tc.input)
			continue
		}
		if cmd.Delta.Screen != tc.want {
			t.Errorf("Interpret(%q) screen = %q, want %q", tc.input, cmd.Delta.Screen, tc.want)
		}
		if cmd.Reply == "" {
			t.Errorf("Interpret(%q) produced an empty reply", tc.input)
		}
	}
}

func TestInterpretSelection(t *testing.T) {
	t.Parallel()
	in := NewInterpreter()

	cmd, ok := in.Interpret("select NMC811")
	if !ok {
		t.Fatal("select NMC811 not recognized")
	}
	if got := cmd.Delta.Materials["cathode"]; got != "NMC811" {
		t.Errorf("cathode material = %q, want NMC811", got)
	}
	if cmd.Delta.Screen != domain.ScreenCathodeMaterials {
		t.Errorf("screen = %q, want cathode_materials", cmd.Delta.Screen)
	}

	cmd, ok = in.Interpret("choose graphite")
	if !ok {
		t.Fatal("choose graphite not recognized")
	}
	if got := cmd.Delta.Materials["anode"]; got != "Graphite" {
		t.Errorf("anode material = %q, want canonical Graphite", got)
	}

	cmd, ok = in.Interpret("select pouch")
	if !ok {
		t.Fatal("select pouch not recognized")
	}
	if got := cmd.Delta.Decisions["form_factor"]; got != "pouch" {
		t.Errorf("form_factor = %q, want pouch", got)
	}
	if cmd.Delta.Screen != domain.ScreenCellDesign {
		t.Errorf("screen = %q, want cell_design", cmd.Delta.Screen)
	}
}

func TestInterpretClear(t *testing.T) {
	t.Parallel()
	in := NewInterpreter()
	cmd, ok := in.Interpret("clear chat")
	if !ok || !cmd.Clear {
		t.Fatalf("clear chat: ok=%v clear=%v, want both true", ok, cmd.Clear)
	}
}

func TestInterpretUnrecognizedFallsThrough(t *testing.T) {
	t.Parallel()
	in := NewInterpreter()

	for _, input := range []string{
		"",
		"what is energy density",
		"select Unobtainium",
		"go to narnia",
		"can you go home with me later",
		"selection criteria for cathodes",
	} {
		if cmd, ok := in.Interpret(input); ok {
			t.Errorf("Interpret(%q) unexpectedly matched rule %q", input, cmd.Rule)
		}
	}
}
