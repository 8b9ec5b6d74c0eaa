package cointax

import "fmt"

// Principle defines the order in which acquisition lots are consumed.
type Principle int

const (
	// FIFO (First-In, First-Out) consumes the oldest lots first.
	FIFO Principle = iota
	// LIFO (Last-In, First-Out) consumes the newest lots first.
	LIFO
)

func (p Principle) String() string {
	switch p {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return "unknown"
	}
}

// ParsePrinciple parses a string into a Principle.
func ParsePrinciple(s string) (Principle, error) {
	switch s {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	default:
		return 0, fmt.Errorf("unknown accounting principle: %q", s)
	}
}
