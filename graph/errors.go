package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycleDetected is returned when audio or control edges form a cycle,
	// or a message cycle does not pass through a register.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrRateMismatch is returned when ports of incompatible rates are
	// connected.
	ErrRateMismatch = errors.New("rate mismatch")
	// ErrPortOccupied is returned when an audio or control input is already
	// driven by another output.
	ErrPortOccupied = errors.New("port occupied")
	// ErrUnknownPort is returned when a port index or name doesn't exist.
	ErrUnknownPort = errors.New("unknown port")
	// ErrUnknownNode is returned when a node id doesn't belong to the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrInvalidConfig is returned for invalid node or graph configuration.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrFrozen is returned when a compiled graph is mutated.
	ErrFrozen = errors.New("graph is frozen")
)

// Error describes a failed graph operation.
type Error struct {
	Op   string
	Node string
	Port string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Node != "" {
		b.WriteString(" ")
		b.WriteString(e.Node)
		if e.Port != "" {
			b.WriteString(".")
			b.WriteString(e.Port)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CycleError names the nodes that form an illegal cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycleDetected, strings.Join(e.Nodes, " -> "))
}

// Unwrap returns ErrCycleDetected.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}
