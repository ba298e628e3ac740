// Package library specifies the external interface the core consults to
// fetch COPY/macro source text from storage (spec component 4.I). The
// core never reaches into storage directly; callers own recursion into
// their own file managers.
package library

import "context"

// Info carries where a library member was physically resolved from,
// for diagnostics ("member X found in library Y"); supplemented from
// original_source's library_info_transitional, dropped by the distilled
// spec but trivial and useful to keep.
type Info struct {
	Dataset string
	Path    string
}

// Kind tells ParseLibrary whether name should be analyzed as a macro
// definition or a COPY member.
type Kind int

const (
	KindMacro Kind = iota
	KindCopy
)

// Source is the text plus location a Get/ParseLibrary fetch returns.
type Source struct {
	Text     string
	Location string
	Info     Info
}

// AnalysisContext is the subset of the processing manager's state a
// recursive parse_library call needs; kept as an opaque interface here so
// this package has no dependency on processing.
type AnalysisContext interface {
	// RegisterResult is called by the library provider's own recursive
	// analysis once it has parsed name, so the manager can merge the
	// resulting macro/copy definition into the symbol store.
	RegisterResult(name string, ok bool)
}

// Provider is the external collaborator the core consults for library
// source (§4.I). Every operation is identified by case-exact member name.
//
// Calls block the calling goroutine until they complete or ctx is
// cancelled; in this single-threaded-cooperative model (§5) that blocking
// call *is* the suspension point — the manager owns no other goroutine
// and holds no state the caller could observe mid-call.
type Provider interface {
	// HasLibrary is a fast existence check.
	HasLibrary(ctx context.Context, name string) bool

	// GetLibrary fetches source text. ok is false if name does not exist.
	GetLibrary(ctx context.Context, name string) (src Source, ok bool, err error)

	// ParseLibrary fetches and analyzes name as a nested unit (macro or
	// copy); the provider owns any recursion into its own file manager and
	// reports completion via the actx AnalysisContext.
	ParseLibrary(ctx context.Context, name string, actx AnalysisContext, kind Kind) (bool, error)
}

// Empty is a no-op Provider used when no workspace is configured (tests,
// single-file analysis), grounded on the original's
// empty_parse_lib_provider.
type Empty struct{}

func (Empty) HasLibrary(context.Context, string) bool { return false }

func (Empty) GetLibrary(context.Context, string) (Source, bool, error) {
	return Source{}, false, nil
}

func (Empty) ParseLibrary(context.Context, string, AnalysisContext, Kind) (bool, error) {
	return false, nil
}
