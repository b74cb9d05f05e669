package uistate

// Period identifies a billing period.
type Period int

const (
	// Monthly is the default billing period.
	Monthly Period = iota
	// Annual bills once a year.
	Annual
)

// PeriodCount is the size of the fixed period set.
const PeriodCount = 2

func (p Period) String() string {
	switch p {
	case Monthly:
		return "monthly"
	case Annual:
		return "annual"
	default:
		return "unknown"
	}
}

// Priced is anything carrying a monthly and an annual price label.
type Priced interface {
	PriceMonthly() string
	PriceAnnual() string
}

// PricingPeriod tracks the selected billing period. The zero value selects Monthly.
type PricingPeriod struct {
	selected Period
}

// Select switches to the period at index. Indices other than 0 and 1 fail with
// an InvalidPeriodError and leave the selection untouched.
func (p *PricingPeriod) Select(index int) error {
	if index < 0 || index >= PeriodCount {
		return &InvalidPeriodError{Index: index}
	}
	p.selected = Period(index)
	return nil
}

// Selected returns the active period.
func (p *PricingPeriod) Selected() Period {
	return p.selected
}

// Index returns the active period as its index in the period set.
func (p *PricingPeriod) Index() int {
	return int(p.selected)
}

// PriceFor projects plan onto the active period.
func (p *PricingPeriod) PriceFor(plan Priced) string {
	return p.selected.PriceFor(plan)
}

// PriceFor returns the monthly price for Monthly and the annual price otherwise.
func (p Period) PriceFor(plan Priced) string {
	if p == Monthly {
		return plan.PriceMonthly()
	}
	return plan.PriceAnnual()
}
