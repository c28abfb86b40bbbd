package sema

// edge records a contagion relationship discovered during the resolution
// pass: if `from` is observed, `to` becomes observed too (spec.md §3.4 —
// "observation is contagious across assignment" and across parameter
// binding).
type edge struct{ from, to *Symbol }

// observationGraph accumulates the initial observed set and contagion
// edges during the resolution pass, then settles them with an explicit
// worklist fixpoint (spec.md §4.4 design note: avoid recursive closures,
// use a queue — the monotonic, bounded set is guaranteed to terminate).
type observationGraph struct {
	observed map[*Symbol]bool
	edges    []edge
}

func newObservationGraph() *observationGraph {
	return &observationGraph{observed: make(map[*Symbol]bool)}
}

// mark records a symbol as directly observed (predicate/metric/
// interrogative subject, or a comparison operand).
func (g *observationGraph) mark(sym *Symbol) {
	if sym == nil {
		return
	}
	g.observed[sym] = true
}

// connect records that observation of `from` should propagate to `to`.
func (g *observationGraph) connect(from, to *Symbol) {
	if from == nil || to == nil || from == to {
		return
	}
	g.edges = append(g.edges, edge{from: from, to: to})
}

// settle runs the worklist fixpoint to closure and writes the result back
// onto each Symbol's Observed field.
func (g *observationGraph) settle() {
	worklist := make([]*Symbol, 0, len(g.observed))
	for sym := range g.observed {
		worklist = append(worklist, sym)
	}
	for len(worklist) > 0 {
		sym := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, e := range g.edges {
			if e.from != sym {
				continue
			}
			if !g.observed[e.to] {
				g.observed[e.to] = true
				worklist = append(worklist, e.to)
			}
		}
	}
	for sym, obs := range g.observed {
		sym.Observed = obs
	}
}
