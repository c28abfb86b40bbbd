// Package diag implements the error taxonomy and bounded-accumulation
// propagation policy described in spec.md §7.
package diag

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind is one of the error taxonomy members from spec.md §7.
type Kind string

const (
	KindLexError         Kind = "LexError"
	KindParseError       Kind = "ParseError"
	KindSemanticError    Kind = "SemanticError"
	KindTypeShapeError   Kind = "TypeShapeError"
	KindCodegenError     Kind = "CodegenError"
	KindRuntimeDiag      Kind = "RuntimeDiagnostic"
	KindInternalError    Kind = "InternalError"
)

// Position is a source location, carried by every diagnostic that has one.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is one reported error or non-fatal runtime condition.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Pos      Position
	Source   string // the offending source line, when available
	Fatal    bool   // false for RuntimeDiagnostic, true for everything else
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message))
	if d.Source != "" {
		sb.WriteString(fmt.Sprintf("\n  %s", d.Source))
		if d.Pos.Column > 0 && d.Pos.Column <= len(d.Source)+1 {
			sb.WriteString(fmt.Sprintf("\n  %s^", strings.Repeat(" ", d.Pos.Column-1)))
		}
	}
	return sb.String()
}

func New(kind Kind, pos Position, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...), Fatal: kind != KindRuntimeDiag}
}

// WithSource attaches the offending source line for a "^" marker.
func (d Diagnostic) WithSource(line string) Diagnostic {
	d.Source = line
	return d
}

// Internal wraps an arbitrary Go error as an InternalError diagnostic,
// capturing a stack trace via github.com/pkg/errors so the driver's
// "one-line apology" (spec.md §7) can point at a full trace.
func Internal(cause error, context string) (Diagnostic, error) {
	wrapped := pkgerrors.Wrap(cause, context)
	return Diagnostic{
		Kind:    KindInternalError,
		Message: wrapped.Error(),
		Fatal:   true,
	}, wrapped
}

// DefaultMaxErrors is the default bounded-accumulation count from spec.md §7.
const DefaultMaxErrors = 20

// Accumulator collects diagnostics up to a bound and tracks whether
// compilation must stop. Lexer, parser, and semantic analyzer each own one.
type Accumulator struct {
	Max   int
	items []Diagnostic
}

func NewAccumulator(max int) *Accumulator {
	if max <= 0 {
		max = DefaultMaxErrors
	}
	return &Accumulator{Max: max}
}

// Add records a diagnostic. It returns false once the bound has been
// reached, signaling the caller to stop accumulating (but passes continue
// skipping to the next synchronization point per spec.md §7).
func (a *Accumulator) Add(d Diagnostic) bool {
	if len(a.items) >= a.Max {
		return false
	}
	a.items = append(a.items, d)
	return true
}

func (a *Accumulator) Items() []Diagnostic { return a.items }

func (a *Accumulator) HasFatal() bool {
	for _, d := range a.items {
		if d.Fatal {
			return true
		}
	}
	return false
}

func (a *Accumulator) Len() int { return len(a.items) }

// Sorted returns diagnostics ordered by file, then line, then column, the
// order the driver prints them in (spec.md §7: "sorted diagnostic list").
func Sorted(items []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.File != out[j].Pos.File {
			return out[i].Pos.File < out[j].Pos.File
		}
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Column < out[j].Pos.Column
	})
	return out
}

// Format renders the "file:line:col: kind: message" form from spec.md §7.
func Format(items []Diagnostic) string {
	var sb strings.Builder
	for i, d := range Sorted(items) {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.String())
	}
	return sb.String()
}
