// cmd/geolc is the compiler's command-line front end: a single `compile`
// command over internal/driver, spec.md §6.4. Grounded on the teacher's
// cmd/sentra/main.go command dispatch, replaced with
// github.com/urfave/cli/v2 — the idiom the rest of the retrieval pack's
// language tools use for their CLI surface — instead of the teacher's
// hand-rolled os.Args switchboard and command-alias map.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"geolc/internal/diag"
	"geolc/internal/driver"
)

// exit codes, spec.md §6.4. exitToolchainError is reserved for a future
// `assemble` command that drives an external assembler; this CLI only
// wraps driver.Compile, which never shells out, so nothing returns it yet.
const (
	exitOK             = 0
	exitSourceError    = 1
	exitInternalError  = 2
	exitToolchainError = 3
)

func main() {
	app := &cli.App{
		Name:  "geolc",
		Usage: "compiler for the observed-value language",
		Commands: []*cli.Command{
			compileCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		cli.HandleExitCoder(err)
	}
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "compile a source file (and its imports) to LIR",
		ArgsUsage: "<input>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "o", Usage: "output path for the LIR artifact"},
			&cli.StringFlag{Name: "target", Value: "host", Usage: "host|wasm32|aarch64|arm|x86_64"},
			&cli.BoolFlag{Name: "lib", Usage: "compile in library mode (omit main)"},
			&cli.IntFlag{Name: "O", Value: 0, Usage: "optimization level 0-3"},
		},
		Action: runCompile,
	}
}

func runCompile(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("InputExpected: compile requires an input file", exitSourceError)
	}
	entryPath := c.Args().First()

	unitSources, entry, err := loadUnits(entryPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("InternalError: %s", err), exitInternalError)
	}

	mode := driver.ModeProgram
	if c.Bool("lib") {
		mode = driver.ModeLibrary
	}
	opts := driver.Options{
		Target:       driver.Target(c.String("target")),
		Mode:         mode,
		Optimization: c.Int("O"),
	}

	artifact, diags := driver.Compile(unitSources, entry, opts)
	if artifact == nil {
		printDiagnostics(diags)
		return cli.Exit("", exitSourceError)
	}

	outPath := c.String("o")
	if outPath == "" {
		outPath = strings.TrimSuffix(filepath.Base(entryPath), filepath.Ext(entryPath)) + ".ll"
	}
	if err := os.WriteFile(outPath, []byte(artifact.LIR), 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("InternalError: failed to write %s: %s", outPath, err), exitInternalError)
	}

	fmt.Printf(
		"compiled %s unit%s, %s of LIR, %s diagnostic%s, wrote %s\n",
		humanize.Comma(int64(len(unitSources))),
		plural(len(unitSources)),
		humanize.Bytes(uint64(len(artifact.LIR))),
		humanize.Comma(int64(len(diags))),
		plural(len(diags)),
		outPath,
	)
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func printDiagnostics(diags []diag.Diagnostic) {
	fmt.Fprintln(os.Stderr, diag.Format(diags))
}

// loadUnits reads the entry file and every unit it transitively imports
// from sibling files named "<module>.geo" next to it, returning the
// source map and the entry unit's own key.
func loadUnits(entryPath string) (map[string][]byte, string, error) {
	dir := filepath.Dir(entryPath)
	entryKey := filepath.Base(entryPath)

	sources := make(map[string][]byte)
	seen := make(map[string]bool)
	queue := []string{entryPath}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		key := filepath.Base(path)
		if seen[key] {
			continue
		}
		seen[key] = true

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		sources[key] = data

		for _, mod := range importedModules(string(data)) {
			modKey := mod
			if !strings.HasSuffix(modKey, ".geo") {
				modKey += ".geo"
			}
			if !seen[modKey] {
				queue = append(queue, filepath.Join(dir, modKey))
			}
		}
	}

	return sources, entryKey, nil
}

// importedModules scans a unit's source text for "from <module> import"
// lines well enough to discover which sibling files to load, without
// needing a full lex/parse pass just to resolve the file set — the
// driver itself does the authoritative parse once files are loaded.
func importedModules(src string) []string {
	var mods []string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "from ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			mods = append(mods, fields[1])
		}
	}
	return mods
}
