package uistate

// NavigationPanel tracks whether the off-canvas mobile menu is open.
// The zero value is a closed panel.
type NavigationPanel struct {
	isOpen bool
}

// Open opens the panel. Opening an open panel is a no-op.
func (n *NavigationPanel) Open() {
	n.isOpen = true
}

// Close closes the panel. Closing a closed panel is a no-op.
func (n *NavigationPanel) Close() {
	n.isOpen = false
}

// IsOpen reports the current visibility.
func (n *NavigationPanel) IsOpen() bool {
	return n.isOpen
}
