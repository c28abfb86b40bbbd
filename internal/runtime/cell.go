// Package runtime implements the geometric-observation runtime ABI from
// spec.md §4.1 and §6.2 as a Go API. Every exported function here
// corresponds one-to-one to a C-callable runtime ABI symbol; the code
// generator declares and calls the subset it needs in the emitted LIR
// text:
//
//	runtime.NewCell      <-> cell_create
//	(*Cell).Init         <-> cell_init
//	(*Cell).Update        <-> cell_update
//	(*Cell).Value/...     <-> cell_value, cell_gradient, cell_stability, cell_iteration
//	Converged/Stable/...  <-> converged, stable, oscillating, diverging, improving
//
// No operation here panics; a nil *Cell is a documented no-op/zero-value
// case, matching the ABI's "no panics cross the boundary" failure model.
package runtime

import "math"

// historyCap is the bounded numeric history length from spec.md §3.4.
const historyCap = 100

// Cell is the observed-value record: current value plus enough geometric
// history to evaluate the predicates in predicates.go.
type Cell struct {
	value        float64
	gradient     float64
	stability    float64
	iteration    int64
	prevValue    float64
	prevGradient float64
	history      [historyCap]float64
	historySize  int32
	historyIndex int32
}

// NewCell allocates a heap Cell, matching cell_create: history seeded with
// one element, stability 1.0, iteration 0.
func NewCell(v float64) *Cell {
	c := &Cell{stability: 1.0}
	c.history[0] = v
	c.historySize = 1
	c.value = v
	c.prevValue = v
	return c
}

// Init is cell_init: identical semantics to NewCell but for caller-owned
// (e.g. stack-frame or global) storage. O(1): only the first history slot
// is written, matching the "lazy history" contract in spec.md §4.1.
func (c *Cell) Init(v float64) {
	if c == nil {
		return
	}
	c.value = v
	c.prevValue = v
	c.gradient = 0
	c.prevGradient = 0
	c.stability = 1.0
	c.iteration = 0
	c.history[0] = v
	c.historySize = 1
	c.historyIndex = 0
}

// Update is cell_update: recomputes gradient/acceleration/stability,
// appends to the circular history, and advances the iteration count.
func (c *Cell) Update(v float64) {
	if c == nil {
		return
	}
	gradient := v - c.value
	acceleration := gradient - c.gradient
	c.stability = math.Exp(-math.Abs(acceleration))

	c.historyIndex = (c.historyIndex + 1) % historyCap
	c.history[c.historyIndex] = v
	if c.historySize < historyCap {
		c.historySize++
	}

	c.iteration++
	c.prevValue = c.value
	c.prevGradient = c.gradient
	c.value = v
	c.gradient = gradient
}

// Value is cell_value: null-safe, falls back to 0.0.
func (c *Cell) Value() float64 {
	if c == nil {
		return 0.0
	}
	return c.value
}

// Gradient is cell_gradient.
func (c *Cell) Gradient() float64 {
	if c == nil {
		return 0.0
	}
	return c.gradient
}

// Stability is cell_stability.
func (c *Cell) Stability() float64 {
	if c == nil {
		return 0.0
	}
	return c.stability
}

// Iteration is cell_iteration.
func (c *Cell) Iteration() int64 {
	if c == nil {
		return 0
	}
	return c.iteration
}

// FrameworkStrength is the metric of the same name in spec.md §4.5.5: the
// governing slot's stability, already in [0, 1] by construction (exp of a
// non-positive exponent).
func (c *Cell) FrameworkStrength() float64 {
	return c.Stability()
}

// recentHistory returns up to n of the most recently stored values, oldest
// first, in chronological order. Used by the predicates below.
func (c *Cell) recentHistory(n int) []float64 {
	size := int(c.historySize)
	if n > size {
		n = size
	}
	out := make([]float64, n)
	// historyIndex points at the most recently written slot.
	idx := int(c.historyIndex)
	for i := 0; i < n; i++ {
		pos := idx - i
		for pos < 0 {
			pos += historyCap
		}
		out[n-1-i] = c.history[pos]
	}
	return out
}
