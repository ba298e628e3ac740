// Package loader resolves the external COPY/macro library source an
// analysis needs from the local filesystem, the way the teacher's
// loader.go resolved an external resource (there, an encoded program)
// into the engine it feeds — here a library.Provider instead of a VM
// image, since object-code generation is out of scope (spec.md §1).
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/lookbusy1344/hlasm-ls/config"
	"github.com/lookbusy1344/hlasm-ls/library"
)

// FileProvider is a library.Provider backed by an ordered list of
// filesystem directories, the way a processor group's `libs` entries
// (config.LibPath, spec.md §6) name a COPY/macro search path. Extensions
// lists the file suffixes tried for a bare member name, in order; the
// first entry is "", so the name with no extension is tried first.
type FileProvider struct {
	Dirs       []string
	Extensions []string
}

// NewFileProvider builds a FileProvider from a ProcessorGroup's LibPath
// entries. Every entry is added whether or not its directory exists or
// is marked Optional; HasLibrary simply never finds anything under a
// missing directory, and no diagnostic is raised for one here.
func NewFileProvider(libs []config.LibPath, extraExtensions []string) *FileProvider {
	fp := &FileProvider{Extensions: append([]string{""}, extraExtensions...)}
	for _, lib := range libs {
		fp.Dirs = append(fp.Dirs, lib.Path)
		fp.Extensions = append(fp.Extensions, lib.MacroExtensions...)
	}
	return fp
}

func (fp *FileProvider) candidates(name string) []string {
	var out []string
	for _, dir := range fp.Dirs {
		for _, ext := range fp.Extensions {
			out = append(out, filepath.Join(dir, strings.ToUpper(name)+ext))
			if ext != "" {
				out = append(out, filepath.Join(dir, strings.ToLower(name)+ext))
			}
		}
	}
	return out
}

// HasLibrary is the fast existence check library.Provider specifies.
func (fp *FileProvider) HasLibrary(_ context.Context, name string) bool {
	for _, path := range fp.candidates(name) {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return true
		}
	}
	return false
}

// GetLibrary reads name's source text from the first matching candidate
// path. It blocks on disk I/O; in the single-threaded cooperative model
// (spec.md §5) that I/O wait is the suspension point the manager awaits.
func (fp *FileProvider) GetLibrary(_ context.Context, name string) (library.Source, bool, error) {
	for _, path := range fp.candidates(name) {
		data, err := os.ReadFile(path) //nolint:gosec // path built from configured library dirs
		if err == nil {
			return library.Source{
				Text:     string(data),
				Location: path,
				Info:     library.Info{Path: path},
			}, true, nil
		}
		if !os.IsNotExist(err) {
			return library.Source{}, false, err
		}
	}
	return library.Source{}, false, nil
}

// ParseLibrary fetches name's text and reports completion through actx;
// this FileProvider does no recursive analysis of its own — callers that
// need that (the processing manager, pushing a copy-definition or
// macro-definition processor over the fetched text) do it themselves and
// then call actx.RegisterResult.
func (fp *FileProvider) ParseLibrary(ctx context.Context, name string, actx library.AnalysisContext, _ library.Kind) (bool, error) {
	_, ok, err := fp.GetLibrary(ctx, name)
	if err != nil {
		return false, err
	}
	actx.RegisterResult(name, ok)
	return ok, nil
}
