package uistate

// Accordion tracks which FAQ entry, if any, is expanded.
//
// The expanded entry is a single optional index rather than one flag per
// entry, so two entries can never be open at once.
type Accordion struct {
	size     int
	expanded int
	open     bool
}

// NewAccordion returns a collapsed accordion over size entries.
func NewAccordion(size int) Accordion {
	if size < 0 {
		size = 0
	}
	return Accordion{size: size}
}

// Toggle collapses index when it is the expanded entry and expands it
// otherwise, implicitly collapsing the previous one.
func (a *Accordion) Toggle(index int) error {
	if err := CheckIndex("faq", index, a.size); err != nil {
		return err
	}
	if a.open && a.expanded == index {
		a.open = false
		a.expanded = 0
		return nil
	}
	a.expanded = index
	a.open = true
	return nil
}

// Expanded returns the expanded index and whether any entry is expanded.
func (a *Accordion) Expanded() (int, bool) {
	if !a.open {
		return 0, false
	}
	return a.expanded, true
}

// IsExpanded reports whether index is the expanded entry.
func (a *Accordion) IsExpanded(index int) bool {
	return a.open && a.expanded == index
}

// Len returns the number of entries the accordion spans.
func (a *Accordion) Len() int {
	return a.size
}
