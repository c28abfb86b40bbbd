// Package linker orders compilation units by their import graph and
// combines their generated LIR text into one program, spec.md §4.6.
// Generalizes the teacher's internal/build/linker.go ModuleGraph /
// ImportResolver: the same visited/visiting-map cycle detection and
// "resolve from entry point, then topologically sort" shape, retargeted
// from Sentra source modules to this language's compilation units and
// LIR text instead of bytecode.
package linker

import (
	"sort"
	"strings"

	"geolc/internal/diag"
	"geolc/internal/parser"
)

// Unit is one compilation unit's import list, as known prior to code
// generation (so the linker can compute an order before codegen runs).
type Unit struct {
	Name    string
	Imports []string
}

// ImportsOf collects the module names a unit's top-level import
// statements name, in source order, for building a Unit.
func ImportsOf(stmts []parser.Stmt) []string {
	var mods []string
	for _, s := range stmts {
		if imp, ok := s.(*parser.Import); ok {
			mods = append(mods, imp.Module)
		}
	}
	return mods
}

// Graph is the set of units known to the linker, keyed by name.
type Graph struct {
	units map[string]*Unit
}

func NewGraph() *Graph {
	return &Graph{units: make(map[string]*Unit)}
}

// AddUnit registers a unit and its import list.
func (g *Graph) AddUnit(name string, imports []string) {
	g.units[name] = &Unit{Name: name, Imports: imports}
}

// Order computes a topological order of every unit reachable from entry
// (dependencies first, entry last), resolving the rest of the graph
// alphabetically afterward so the result is deterministic. An import
// cycle is reported the way spec.md §7/§4.6 names it: a SemanticError
// diagnostic reading "cyclic import", matching the driver's rejection of
// any non-DAG import graph (spec.md §8 property 7).
func (g *Graph) Order(entry string) ([]string, diag.Diagnostic, bool) {
	var sorted []string
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	var cycle diag.Diagnostic
	hasCycle := false

	var visit func(name string) bool
	visit = func(name string) bool {
		if visited[name] {
			return true
		}
		if visiting[name] {
			cycle = diag.New(diag.KindSemanticError, diag.Position{}, "cyclic import: %q participates in an import cycle", name)
			hasCycle = true
			return false
		}
		visiting[name] = true
		if u, ok := g.units[name]; ok {
			for _, dep := range u.Imports {
				if !visit(dep) {
					return false
				}
			}
		}
		visiting[name] = false
		visited[name] = true
		sorted = append(sorted, name)
		return true
	}

	if !visit(entry) {
		return nil, cycle, true
	}

	remaining := make([]string, 0, len(g.units))
	for name := range g.units {
		if !visited[name] {
			remaining = append(remaining, name)
		}
	}
	sort.Strings(remaining)
	for _, name := range remaining {
		if !visit(name) {
			return nil, cycle, true
		}
	}

	return sorted, diag.Diagnostic{}, false
}

// DependencyInits returns the qualified __init_unit_<name> function
// names for every unit in order except entry, for wiring into the entry
// unit's codegen.Generator.ExternalInits before it runs (spec.md §4.5.6:
// "a main wrapper... calls the unit initializers in import order").
func DependencyInits(order []string, entry string, sanitize func(string) string) []string {
	var names []string
	for _, name := range order {
		if name == entry {
			continue
		}
		names = append(names, "__init_unit_"+sanitize(name))
	}
	return names
}

// Combine concatenates each unit's LIR text in the given order into one
// program, keeping only the first occurrence of any runtime `declare`
// line or the `%cell` type definition — every unit's Generator declares
// the same ABI surface independently, and LLVM IR permits a global
// symbol only one declaration. The entry unit's `main`/`__init_unit_*`
// bodies are otherwise emitted verbatim and in full.
func Combine(order []string, lirByUnit map[string]string) string {
	seen := make(map[string]bool)
	var out strings.Builder
	for i, name := range order {
		lir := lirByUnit[name]
		for _, line := range strings.Split(lir, "\n") {
			trimmed := strings.TrimSpace(line)
			if isSharedDeclLine(trimmed) {
				if seen[trimmed] {
					continue
				}
				seen[trimmed] = true
			}
			out.WriteString(line)
			out.WriteByte('\n')
		}
		if i < len(order)-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

func isSharedDeclLine(line string) bool {
	return strings.HasPrefix(line, "declare ") || strings.HasPrefix(line, "%cell = type")
}
