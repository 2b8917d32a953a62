package storage

// Layout fixes the floor geometry of the rack sections.
//
// Aisles are split evenly into Sections laid side by side along X. Within a
// section, aisles are grouped back to back as 1-2-2-...-2-1: the first aisle
// stands alone, the rest pair up, and an odd one out closes the section.
// Adjacent aisles in a group are PairSpacing apart in Y; consecutive groups are
// GroupSpacing apart.
type Layout struct {
	Sections     int     `yaml:"sections" json:"sections"`
	StartX       float64 `yaml:"start_x" json:"start_x"`
	SectionGap   float64 `yaml:"section_gap" json:"section_gap"`
	SlotWidth    float64 `yaml:"slot_width" json:"slot_width"`
	StartY       float64 `yaml:"start_y" json:"start_y"`
	PairSpacing  float64 `yaml:"pair_spacing" json:"pair_spacing"`
	GroupSpacing float64 `yaml:"group_spacing" json:"group_spacing"`
	LevelHeight  float64 `yaml:"level_height" json:"level_height"`
}

// DefaultLayout returns the two-section facility floor plan.
func DefaultLayout() Layout {
	return Layout{
		Sections:     2,
		StartX:       14,
		SectionGap:   4,
		SlotWidth:    1,
		StartY:       1,
		PairSpacing:  2,
		GroupSpacing: 3,
		LevelHeight:  1,
	}
}

// aisleGroup returns the back-to-back group index of a section-local aisle.
func aisleGroup(local int) int {
	if local == 0 {
		return 0
	}
	return (local + 1) / 2
}

// coordinates computes the position of every cell, indexed like Grid.cells.
func (l Layout) coordinates(aisles, slots, levels int) []Coordinate {
	coords := make([]Coordinate, aisles*slots*levels)
	perSection := aisles / l.Sections
	sectionWidth := float64(slots) * l.SlotWidth

	aisleY := make([]float64, aisles)
	for s := 0; s < l.Sections; s++ {
		y := l.StartY
		for local := 0; local < perSection; local++ {
			aisleY[s*perSection+local] = y
			if aisleGroup(local+1) == aisleGroup(local) {
				y += l.PairSpacing
			} else {
				y += l.GroupSpacing
			}
		}
	}

	i := 0
	for a := 0; a < aisles; a++ {
		section := a / perSection
		x0 := l.StartX + float64(section)*(l.SectionGap+sectionWidth)
		for slot := 0; slot < slots; slot++ {
			x := x0 + float64(slot)*l.SlotWidth
			for level := 0; level < levels; level++ {
				coords[i] = Coordinate{X: x, Y: aisleY[a], Z: float64(level) * l.LevelHeight}
				i++
			}
		}
	}
	return coords
}
