package runtime

import (
	"fmt"
	"io"
	"os"
)

// Stdout is where PrintF64 writes; swappable so driver end-to-end tests
// can capture program output without touching the process's real stdout.
var Stdout io.Writer = os.Stdout

// PrintF64 is print_f64: prints a formatted double plus a newline.
func PrintF64(v float64) {
	fmt.Fprintln(Stdout, FormatNumber(v))
}
