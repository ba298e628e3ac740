package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/lookbusy1344/hlasm-ls/analyzer"
	"github.com/lookbusy1344/hlasm-ls/config"
	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/inspect"
	"github.com/lookbusy1344/hlasm-ls/lexer"
	"github.com/lookbusy1344/hlasm-ls/loader"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		pgroupsFile = flag.String("pgroups", "", "Path to processor-group configuration JSON (spec.md §6)")
		pgroupName  = flag.String("pgroup", "", "Processor group to use from -pgroups (default: first group)")
		jsonOut     = flag.Bool("json", false, "Emit diagnostics as JSON instead of text")
		tuiMode     = flag.Bool("tui", false, "Open the terminal session inspector after analysis")
		desktopMode = flag.Bool("desktop", false, "Open the desktop diagnostics viewer after analysis")
		diagLimit   = flag.Int("diag-limit", 0, "Maximum diagnostics retained (0 = unlimited, spec.md §4.H)")
		begin       = flag.Int("begin", 1, "Fixed BEGIN column override (1-indexed, spec.md §4.A)")
		end         = flag.Int("end", 72, "Fixed END column override (1-indexed, spec.md §4.A)")
		continueCol = flag.Int("continue", 16, "Fixed CONTINUE column override (1-indexed, spec.md §4.A)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("hlasm-ls %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp || flag.NArg() == 0 {
		printHelp()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	srcFile := flag.Arg(0)
	// #nosec G304 -- filePath is a command-line argument, user-controlled by design
	source, err := os.ReadFile(srcFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", srcFile, err)
		os.Exit(1)
	}

	var fileProvider *loader.FileProvider
	if *pgroupsFile != "" {
		groups, err := loadProcessorGroups(*pgroupsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if group := pickGroup(groups, *pgroupName); group != nil {
			fileProvider = loader.NewFileProvider(libPaths(group.Libs), groups.MacroExtensions)
		}
	}

	cols := lexer.Columns{Begin: *begin - 1, End: *end - 1, Continue: *continueCol - 1}
	opts := analyzer.Options{
		DiagnosticLimit: *diagLimit,
		LexerOptions:    []lexer.Option{lexer.WithColumns(cols)},
	}
	if fileProvider != nil {
		opts.Library = fileProvider
	}

	prefs, err := config.LoadToolPreferences()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using default preferences\n", err)
		prefs = config.DefaultToolPreferences()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := analyzer.Analyze(ctx, filepath.Base(srcFile), string(source), opts)

	if *jsonOut {
		if err := printJSON(result.Diagnostics); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		printDiagnostics(result.Diagnostics, string(source), prefs)
	}

	if *tuiMode {
		t := inspect.NewTUI(result, string(source))
		if err := t.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: inspector failed: %v\n", err)
		}
	}
	if *desktopMode {
		v := inspect.NewDesktopViewer(result)
		v.ShowAndRun()
	}

	os.Exit(0)
}

func loadProcessorGroups(path string) (*config.ProcessorGroups, error) {
	// #nosec G304 -- path is an operator-supplied configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading processor-group config: %w", err)
	}
	var groups config.ProcessorGroups
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parsing processor-group config: %w", err)
	}
	return &groups, nil
}

func pickGroup(groups *config.ProcessorGroups, name string) *config.ProcessorGroup {
	if groups == nil {
		return nil
	}
	for i := range groups.Pgroups {
		if name == "" || groups.Pgroups[i].Name == name {
			return &groups.Pgroups[i]
		}
	}
	return nil
}

func libPaths(raw []json.RawMessage) []config.LibPath {
	var out []config.LibPath
	for _, r := range raw {
		if p, ok := config.DecodeLibPath(r); ok {
			out = append(out, p)
		}
	}
	return out
}

// severityColor returns the ANSI escape to prefix a diagnostic line with
// under ToolPreferences.Display.ColorOutput (§4.J severities: error,
// warning, info).
func severityColor(sev diag.Severity) string {
	switch sev {
	case diag.SeverityError:
		return "\x1b[31m"
	case diag.SeverityWarning:
		return "\x1b[33m"
	default:
		return "\x1b[36m"
	}
}

// printDiagnostics renders diags sorted by source line, honoring the
// operator's local display preferences (§ ToolPreferences): colorized
// severities, and prefs.Display.SourceContext lines of source printed
// around each diagnostic's position.
func printDiagnostics(diags []diag.Diagnostic, source string, prefs *config.ToolPreferences) {
	if len(diags) == 0 {
		fmt.Println("No diagnostics.")
		return
	}
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Range.Start.Line < diags[j].Range.Start.Line
	})
	lines := strings.Split(source, "\n")
	const reset = "\x1b[0m"
	for _, d := range diags {
		color, clear := "", ""
		if prefs.Display.ColorOutput {
			color, clear = severityColor(d.Severity), reset
		}
		fmt.Printf("%s%d:%d: %s %s: %s%s\n",
			color, d.Range.Start.Line+1, d.Range.Start.Column+1, d.Severity, d.Code, d.Message, clear)
		printSourceContext(lines, d.Range.Start.Line, prefs.Display.SourceContext)
	}
}

// printSourceContext prints up to context lines of source before and
// after line (0-indexed), marking line itself with a caret. context <= 0
// disables it entirely.
func printSourceContext(lines []string, line, context int) {
	if context <= 0 {
		return
	}
	start := line - context
	if start < 0 {
		start = 0
	}
	end := line + context + 1
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i < end; i++ {
		marker := "  "
		if i == line {
			marker = "> "
		}
		fmt.Printf("    %s%4d| %s\n", marker, i+1, lines[i])
	}
}

func printJSON(diags []diag.Diagnostic) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

func printHelp() {
	fmt.Println(`hlasm-ls - HLASM language-server-grade analyzer (CLI front end)

Usage:
  hlasm-ls [options] <source-file>

Options:`)
	flag.PrintDefaults()
	fmt.Println(`
Exit codes:
  0 - analysis ran (diagnostics, if any, were printed; a diagnostic
      never changes the exit code, per spec.md §6)
  1 - usage error or malformed configuration`)
}
