// Package analyzer wires the lexer, statement parser and processing
// manager together into the single entry point every front end (the CLI,
// the terminal inspector, the desktop viewer, the wails GUI) drives a
// file through. The core packages deliberately stop short of this
// wiring themselves (§2 "Data flow" describes the pipeline, not a single
// constructor for it); this package is that constructor, grounded on the
// same pattern processing.manager_test.go uses to drive an analysis.
package analyzer

import (
	"context"

	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/lexer"
	"github.com/lookbusy1344/hlasm-ls/library"
	"github.com/lookbusy1344/hlasm-ls/processing"
	"github.com/lookbusy1344/hlasm-ls/symbols"
)

// MaxSteps bounds the processing manager's main loop for a single
// Analyze call, guarding against a runaway AGO/AIF cycle in malformed
// source; it is far above anything a real program needs.
const MaxSteps = 2_000_000

// Result is everything a front end needs after analyzing one file: the
// diagnostics, the resulting symbol store, and the manager itself (for
// callers, like the inspector, that want to keep browsing its state).
type Result struct {
	Filename    string
	Manager     *processing.Manager
	Store       *symbols.Store
	Diags       *diag.Collector
	Diagnostics []diag.Diagnostic
}

// Options configures one Analyze call.
type Options struct {
	// Library resolves COPY members and macro libraries (§4.I); nil means
	// no external library (single-file analysis, or tests).
	Library library.Provider

	// DiagnosticLimit caps how many diagnostics are retained (§4.H
	// "diagnostic-limit policy"); 0 means unlimited.
	DiagnosticLimit int

	// LexerOptions is passed through to lexer.New (ICTL columns, DBCS,
	// tab width).
	LexerOptions []lexer.Option
}

// Analyze runs the full pipeline (§2 "Data flow") over one file's source
// text: lex, split into Initial-mode statements, then drive the
// processing manager to completion.
//
// ctx is sampled by the manager's main loop at every iteration and
// before every library fetch (§5 "Cancellation"); once ctx is done,
// Analyze still returns a Result, but the caller must discard it rather
// than treat its diagnostics as complete — a trailing "A998" diagnostic
// marks where the analysis stopped. Passing context.Background() keeps
// the previous uncancellable behavior.
func Analyze(ctx context.Context, filename, source string, opts Options) *Result {
	diags := diag.NewCollector()
	if opts.DiagnosticLimit > 0 {
		diags.SetLimit(opts.DiagnosticLimit)
	}
	stmts := processing.ParseSource(source, filename, diags, opts.LexerOptions...)
	store := symbols.NewStore()
	mgr := processing.NewManager(filename, stmts, store, diags, opts.Library)
	mgr.Run(ctx, MaxSteps)

	return &Result{
		Filename:    filename,
		Manager:     mgr,
		Store:       store,
		Diags:       diags,
		Diagnostics: diags.All(),
	}
}
