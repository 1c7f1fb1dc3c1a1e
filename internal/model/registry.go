package model

import (
	"strconv"

	"github.com/nvandessel/cable/internal/sections"
	"github.com/nvandessel/cable/internal/solver"
)

// Probe is a point process attached to the model on behalf of a node.
type Probe struct {
	Node     int64
	Kind     solver.PointKind
	Point    solver.PointID
	Location sections.Location // zero for spike generators and connectors
}

// Recorder binds a node's state variable to a trace filled by runs.
type Recorder struct {
	Node     int64
	Label    string // empty for node-keyed recorders
	Variable string
	Location sections.Location
	Trace    *solver.Trace
}

// Values returns a copy of the recorded samples.
func (r Recorder) Values() []float64 {
	if r.Trace == nil {
		return nil
	}
	return r.Trace.Values()
}

// Key returns the label, or the node id when the recorder is unlabeled.
func (r Recorder) Key() string {
	if r.Label != "" {
		return r.Label
	}
	return strconv.FormatInt(r.Node, 10)
}

// NodeList is an append-only multimap keyed by node id. Adding to a node
// never replaces what is already there.
type NodeList[T any] struct {
	items map[int64][]T
	order []int64
}

// NewNodeList creates an empty multimap.
func NewNodeList[T any]() *NodeList[T] {
	return &NodeList[T]{items: make(map[int64][]T)}
}

// Append adds values under id.
func (l *NodeList[T]) Append(id int64, v ...T) {
	if _, ok := l.items[id]; !ok {
		l.order = append(l.order, id)
	}
	l.items[id] = append(l.items[id], v...)
}

// Get returns a copy of the values under id.
func (l *NodeList[T]) Get(id int64) []T {
	return append([]T(nil), l.items[id]...)
}

// Keys returns node ids in first-insertion order.
func (l *NodeList[T]) Keys() []int64 {
	return append([]int64(nil), l.order...)
}

// Len returns the number of values across all nodes.
func (l *NodeList[T]) Len() int {
	n := 0
	for _, v := range l.items {
		n += len(v)
	}
	return n
}

// Snapshot returns a copy of the whole multimap.
func (l *NodeList[T]) Snapshot() map[int64][]T {
	out := make(map[int64][]T, len(l.items))
	for id, v := range l.items {
		out[id] = append([]T(nil), v...)
	}
	return out
}

// Reset drops everything.
func (l *NodeList[T]) Reset() {
	l.items = make(map[int64][]T)
	l.order = nil
}

// Labeled is a replace-by-key map. Putting under an existing label
// overwrites the previous value.
type Labeled[T any] struct {
	items map[string]T
	order []string
}

// NewLabeled creates an empty labeled map.
func NewLabeled[T any]() *Labeled[T] {
	return &Labeled[T]{items: make(map[string]T)}
}

// Put stores v under label and reports whether it replaced a value.
func (l *Labeled[T]) Put(label string, v T) bool {
	_, replaced := l.items[label]
	if !replaced {
		l.order = append(l.order, label)
	}
	l.items[label] = v
	return replaced
}

// Get returns the value under label.
func (l *Labeled[T]) Get(label string) (T, bool) {
	v, ok := l.items[label]
	return v, ok
}

// Labels returns labels in first-insertion order.
func (l *Labeled[T]) Labels() []string {
	return append([]string(nil), l.order...)
}

// Len returns the number of labels.
func (l *Labeled[T]) Len() int {
	return len(l.items)
}

// Reset drops everything.
func (l *Labeled[T]) Reset() {
	l.items = make(map[string]T)
	l.order = nil
}
