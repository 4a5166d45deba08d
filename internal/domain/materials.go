package domain

import "strings"

// MaterialSlot names a component position in a cell design.
type MaterialSlot string

const (
	SlotCathode     MaterialSlot = "cathode"
	SlotAnode       MaterialSlot = "anode"
	SlotElectrolyte MaterialSlot = "electrolyte"
	SlotSeparator   MaterialSlot = "separator"
)

// Catalog of materials the platform knows about, keyed by slot. Matches the
// options exposed by the host application's material pages.
var materialCatalog = map[MaterialSlot][]string{
	SlotCathode:     {"NMC811", "LCO", "NCA"},
	SlotAnode:       {"Graphite", "Silicon", "Tin"},
	SlotElectrolyte: {"LiPF6 in EC:DMC", "LiPF6 in EC:EMC", "LiTFSI in EC:DMC"},
	SlotSeparator:   {"PE", "PP", "PE/PP Trilayer"},
}

// FormFactors lists the supported cell form factors.
var FormFactors = []string{"cylindrical", "pouch", "prismatic"}

// LookupMaterial resolves a user-supplied material name case-insensitively.
// It returns the slot the material belongs to and its canonical spelling.
func LookupMaterial(name string) (MaterialSlot, string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", "", false
	}
	for slot, names := range materialCatalog {
		for _, canonical := range names {
			if strings.ToLower(canonical) == needle {
				return slot, canonical, true
			}
		}
	}
	return "", "", false
}

// MaterialsForSlot returns the canonical material names for a slot.
func MaterialsForSlot(slot MaterialSlot) []string {
	names := materialCatalog[slot]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// ScreenForSlot maps a material slot to the page where it is selected.
func ScreenForSlot(slot MaterialSlot) Screen {
	switch slot {
	case SlotCathode:
		return ScreenCathodeMaterials
	case SlotAnode:
		return ScreenAnodeMaterials
	case SlotElectrolyte:
		return ScreenElectrolyteMaterials
	case SlotSeparator:
		return ScreenSeparatorMaterials
	default:
		return ScreenMaterialSelector
	}
}

// IsFormFactor resolves a user-supplied form factor name case-insensitively.
func IsFormFactor(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, ff := range FormFactors {
		if ff == needle {
			return ff, true
		}
	}
	return "", false
}
