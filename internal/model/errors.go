package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownNode is returned when a target node id has no location.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownVariable is returned when a recorder names a variable the
	// engine cannot record.
	ErrUnknownVariable = errors.New("unknown state variable")

	// ErrSectionIndex is returned for section indices outside the model.
	ErrSectionIndex = errors.New("section index out of range")

	// ErrCleared is returned by operations on a model whose sections were
	// released.
	ErrCleared = errors.New("model has been cleared")

	// ErrNoTargets is returned when an instrumentation call names no nodes.
	ErrNoTargets = errors.New("no target nodes")
)

// LookupError lists the node ids that could not be resolved.
type LookupError struct {
	IDs []int64
}

// Error implements error.
func (e *LookupError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%v: %s", ErrUnknownNode, strings.Join(ids, ", "))
}

// Unwrap returns ErrUnknownNode.
func (e *LookupError) Unwrap() error {
	return ErrUnknownNode
}

// VariableError names the rejected state variable.
type VariableError struct {
	Name string
}

// Error implements error.
func (e *VariableError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownVariable, e.Name)
}

// Unwrap returns ErrUnknownVariable.
func (e *VariableError) Unwrap() error {
	return ErrUnknownVariable
}
