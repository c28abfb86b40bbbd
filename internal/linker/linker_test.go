package linker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"geolc/internal/codegen"
)

func TestOrderPlacesDependenciesBeforeEntry(t *testing.T) {
	g := NewGraph()
	g.AddUnit("main", []string{"geometry"})
	g.AddUnit("geometry", nil)

	order, _, cyclic := g.Order("main")
	require.False(t, cyclic)
	require.Equal(t, []string{"geometry", "main"}, order)
}

func TestOrderDetectsCycle(t *testing.T) {
	g := NewGraph()
	g.AddUnit("a", []string{"b"})
	g.AddUnit("b", []string{"a"})

	_, d, cyclic := g.Order("a")
	require.True(t, cyclic)
	require.Equal(t, "SemanticError", string(d.Kind))
	require.Contains(t, d.Message, "cyclic import")
}

func TestOrderIncludesUnreferencedUnitsDeterministically(t *testing.T) {
	g := NewGraph()
	g.AddUnit("main", nil)
	g.AddUnit("zeta", nil)
	g.AddUnit("alpha", nil)

	order, _, cyclic := g.Order("main")
	require.False(t, cyclic)
	require.Equal(t, []string{"main", "alpha", "zeta"}, order)
}

func TestDependencyInitsExcludesEntry(t *testing.T) {
	order := []string{"geometry", "main"}
	names := DependencyInits(order, "main", codegen.SanitizeUnitName)
	require.Equal(t, []string{"__init_unit_geometry"}, names)
}

func TestCombineDedupsSharedDeclareAndCellType(t *testing.T) {
	a := "%cell = type { double }\ndeclare void @print_f64(double)\ndefine void @__init_unit_a() {\nret void\n}\n"
	b := "%cell = type { double }\ndeclare void @print_f64(double)\ndefine void @__init_unit_b() {\nret void\n}\n"

	combined := Combine([]string{"a", "b"}, map[string]string{"a": a, "b": b})

	require.Equal(t, 1, countOccurrences(combined, "%cell = type { double }"))
	require.Equal(t, 1, countOccurrences(combined, "declare void @print_f64(double)"))
	require.Contains(t, combined, "@__init_unit_a")
	require.Contains(t, combined, "@__init_unit_b")
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}
