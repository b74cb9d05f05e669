package uistate

import "strings"

// Policy decides what happens to contract violations raised by transitions.
type Policy int

const (
	// Strict surfaces violations to the caller. Used in development.
	Strict Policy = iota
	// Lenient drops violations; the state is left as it was.
	Lenient
)

// PolicyFor returns Strict for development-like environments and Lenient otherwise.
func PolicyFor(environment string) Policy {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "", "dev", "development", "local", "test":
		return Strict
	default:
		return Lenient
	}
}

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// Resolve returns err unchanged under Strict. Under Lenient, contract
// violations resolve to nil; other errors are returned as-is.
func (p Policy) Resolve(err error) error {
	if err == nil {
		return nil
	}
	if p == Lenient && IsContractViolation(err) {
		return nil
	}
	return err
}
