package uistate

// ChatPanel tracks whether the chat overlay is visible. The zero value is hidden.
type ChatPanel struct {
	visible bool
}

// Toggle flips visibility.
func (c *ChatPanel) Toggle() {
	c.visible = !c.visible
}

// Show makes the overlay visible.
func (c *ChatPanel) Show() {
	c.visible = true
}

// Hide hides the overlay.
func (c *ChatPanel) Hide() {
	c.visible = false
}

// IsVisible reports the current visibility.
func (c *ChatPanel) IsVisible() bool {
	return c.visible
}
