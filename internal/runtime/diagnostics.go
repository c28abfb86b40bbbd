package runtime

import (
	"fmt"
	"os"
)

// Diagnostics receives the runtime's non-fatal diagnostics (spec.md §4.1,
// §7 "RuntimeDiagnostic"): list and string bounds violations. NaN results
// are not reported through it. The reference implementation always wrote these to a fixed
// stream; here they go through a swappable sink so tests can capture them
// instead of scraping stderr — a faithful-but-testable redesign, recorded
// in DESIGN.md.
type Diagnostics interface {
	Report(message string)
}

// StderrDiagnostics writes every diagnostic to os.Stderr, matching the
// reference runtime's default behavior.
type StderrDiagnostics struct{}

func (StderrDiagnostics) Report(message string) {
	fmt.Fprintln(os.Stderr, message)
}

// CollectingDiagnostics accumulates diagnostics in memory for tests.
type CollectingDiagnostics struct {
	Messages []string
}

func (c *CollectingDiagnostics) Report(message string) {
	c.Messages = append(c.Messages, message)
}

var defaultDiagnostics Diagnostics = StderrDiagnostics{}

func reportBounds(d Diagnostics, op string, index int64) {
	d.Report(fmt.Sprintf("%s: index %d out of bounds", op, index))
}
