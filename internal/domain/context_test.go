package domain

import (
	"errors"
	"testing"
	"time"
)

func TestMergeIsMonotonicAdditive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	snap := NewSnapshot(now)

	snap, err := snap.Merge(ContextDelta{Materials: map[string]string{"cathode": "NMC811"}}, now)
	if err != nil {
		t.Fatalf("merge materials failed: %v", err)
	}
	snap, err = snap.Merge(ContextDelta{Screen: ScreenCathodeMaterials}, now)
	if err != nil {
		t.Fatalf("merge screen failed: %v", err)
	}

	if snap.Screen != ScreenCathodeMaterials {
		t.Errorf("expected screen %q, got %q", ScreenCathodeMaterials, snap.Screen)
	}
	if snap.Materials["cathode"] != "NMC811" {
		t.Errorf("earlier material selection was erased: %v", snap.Materials)
	}

	// A later merge that omits everything changes nothing.
	snap2, err := snap.Merge(ContextDelta{}, now.Add(time.Second))
	if err != nil {
		t.Fatalf("empty merge failed: %v", err)
	}
	if snap2.Screen != snap.Screen || snap2.Materials["cathode"] != "NMC811" {
		t.Errorf("empty merge altered state: %+v", snap2)
	}
}

func TestMergeDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	now := time.Now()
	snap := NewSnapshot(now)
	merged, err := snap.Merge(ContextDelta{
		Screen:    ScreenCellDesign,
		Decisions: map[string]string{"form_factor": "pouch"},
	}, now)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if snap.Screen != ScreenHome {
		t.Errorf("receiver screen mutated: %q", snap.Screen)
	}
	if len(snap.Decisions) != 0 {
		t.Errorf("receiver decisions mutated: %v", snap.Decisions)
	}
	if merged.Decisions["form_factor"] != "pouch" {
		t.Errorf("merged decision missing: %v", merged.Decisions)
	}
}

func TestMergeRejectsUnknownScreen(t *testing.T) {
	t.Parallel()

	now := time.Now()
	snap := NewSnapshot(now)
	_, err := snap.Merge(ContextDelta{Screen: "warp_core"}, now)
	if !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}
}

func TestLookupMaterialIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	slot, name, ok := LookupMaterial("nmc811")
	if !ok || slot != SlotCathode || name != "NMC811" {
		t.Fatalf("expected cathode/NMC811, got %s/%s ok=%v", slot, name, ok)
	}

	if _, _, ok := LookupMaterial("Unobtainium"); ok {
		t.Fatal("expected unknown material to miss the catalog")
	}
}
