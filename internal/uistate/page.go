package uistate

import "fmt"

// EventKind names a single user interaction.
type EventKind string

const (
	EventNavOpen       EventKind = "nav.open"
	EventNavClose      EventKind = "nav.close"
	EventPricingSelect EventKind = "pricing.select"
	EventFAQToggle     EventKind = "faq.toggle"
	EventChatToggle    EventKind = "chat.toggle"
	EventChatShow      EventKind = "chat.show"
	EventChatHide      EventKind = "chat.hide"
)

// Event is one input targeting exactly one container. Index is only read by
// pricing.select and faq.toggle.
type Event struct {
	Kind  EventKind
	Index int
}

func (e Event) String() string {
	switch e.Kind {
	case EventPricingSelect, EventFAQToggle:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Index)
	default:
		return string(e.Kind)
	}
}

// Page owns the four containers of a single page view. It is created at mount
// with initial values and handed to the widgets that read or mutate it.
type Page struct {
	Nav     NavigationPanel
	Pricing PricingPeriod
	FAQ     Accordion
	Chat    ChatPanel
}

// NewPage returns the initial state for a page rendering faqCount FAQ entries.
func NewPage(faqCount int) *Page {
	return &Page{FAQ: NewAccordion(faqCount)}
}

// Apply routes ev to the container it targets. A failed transition leaves
// every container untouched.
func (p *Page) Apply(ev Event) error {
	switch ev.Kind {
	case EventNavOpen:
		p.Nav.Open()
	case EventNavClose:
		p.Nav.Close()
	case EventPricingSelect:
		return p.Pricing.Select(ev.Index)
	case EventFAQToggle:
		return p.FAQ.Toggle(ev.Index)
	case EventChatToggle:
		p.Chat.Toggle()
	case EventChatShow:
		p.Chat.Show()
	case EventChatHide:
		p.Chat.Hide()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
	return nil
}

// Snapshot is a read-only copy of a Page for rendering.
type Snapshot struct {
	NavOpen     bool
	Period      Period
	Expanded    int
	HasExpanded bool
	FAQCount    int
	ChatVisible bool
}

// Snapshot copies the current state.
func (p *Page) Snapshot() Snapshot {
	expanded, ok := p.FAQ.Expanded()
	return Snapshot{
		NavOpen:     p.Nav.IsOpen(),
		Period:      p.Pricing.Selected(),
		Expanded:    expanded,
		HasExpanded: ok,
		FAQCount:    p.FAQ.Len(),
		ChatVisible: p.Chat.IsVisible(),
	}
}

// IsExpanded reports whether FAQ entry index is expanded in the snapshot.
func (s Snapshot) IsExpanded(index int) bool {
	return s.HasExpanded && s.Expanded == index
}

// PriceFor projects plan onto the snapshot's billing period.
func (s Snapshot) PriceFor(plan Priced) string {
	return s.Period.PriceFor(plan)
}
