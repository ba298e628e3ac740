package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lookbusy1344/hlasm-ls/analyzer"
	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

var debugLog *log.Logger
var debugEnabled bool

func init() {
	debugEnabled = os.Getenv("HLASM_LS_DEBUG") != ""

	if debugEnabled {
		// Create debug log file with restrictive permissions (0600 = owner read/write only)
		f, err := os.OpenFile("/tmp/hlasm-ls-gui-debug.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open debug log: %v\n", err)
			debugLog = log.New(os.Stderr, "GUI: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			debugLog = log.New(f, "GUI: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		debugLog = log.New(io.Discard, "", 0)
	}
}

// App is the wails-bound front end over one analyzer.Result, rebound
// from the teacher's App (which wrapped a service.DebuggerService
// stepping a live vm.VM) to wrap an analyzer.Result instead — there is
// no execution here (spec.md §1 non-goals), only the outcome of one
// Analyze call.
type App struct {
	ctx    context.Context
	result *analyzer.Result
}

// NewApp creates a new App with no analysis loaded yet.
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts.
func (a *App) startup(ctx context.Context) {
	debugLog.Println("startup() called")
	a.ctx = ctx
	debugLog.Println("startup() completed")
}

// AnalyzeSource runs the full pipeline over source and stores the result
// for the other bound methods to query; mirrors the teacher's
// LoadProgramFromSource but analyzes instead of loads-into-memory.
func (a *App) AnalyzeSource(source string, filename string) error {
	const maxSourceSize = 1024 * 1024 // 1MB limit
	if len(source) > maxSourceSize {
		return fmt.Errorf("source code too large: %d bytes (maximum %d bytes)", len(source), maxSourceSize)
	}

	a.result = analyzer.Analyze(a.ctx, filename, source, analyzer.Options{})
	runtime.EventsEmit(a.ctx, "analysis:completed")
	return nil
}

// AnalyzeFile opens a file dialog and analyzes the chosen HLASM source.
func (a *App) AnalyzeFile() error {
	filePath, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open HLASM Source",
		Filters: []runtime.FileFilter{
			{DisplayName: "HLASM Source (*.hlasm, *.asm)", Pattern: "*.hlasm;*.asm"},
			{DisplayName: "All Files (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open file dialog: %w", err)
	}
	if filePath == "" {
		return nil // user cancelled
	}

	const maxSourceSize = 1024 * 1024
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > maxSourceSize {
		return fmt.Errorf("file too large: %d bytes (maximum %d bytes)", info.Size(), maxSourceSize)
	}

	// #nosec G304 -- filePath chosen interactively by the user via OpenFileDialog
	source, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := a.AnalyzeSource(string(source), filePath); err != nil {
		runtime.EventsEmit(a.ctx, "analysis:error", err.Error())
		return err
	}
	runtime.EventsEmit(a.ctx, "analysis:file-loaded", filePath)
	return nil
}

// Diagnostics returns the current analysis's diagnostics.
func (a *App) Diagnostics() []diag.Diagnostic {
	if a.result == nil {
		return nil
	}
	return a.result.Diagnostics
}

// SymbolTable returns ordinary-symbol names and their defined state.
func (a *App) SymbolTable() map[string]bool {
	out := map[string]bool{}
	if a.result == nil {
		return out
	}
	for _, sym := range a.result.Store.Ordinary.All() {
		out[sym.Name] = sym.Defined
	}
	return out
}

// IsAnalyzed reports whether an analysis result is currently loaded.
func (a *App) IsAnalyzed() bool {
	return a.result != nil
}
