package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/hlasm-ls/config"
)

type fakeAnalysisContext struct {
	name string
	ok   bool
}

func (f *fakeAnalysisContext) RegisterResult(name string, ok bool) {
	f.name, f.ok = name, ok
}

func TestFileProvider_GetLibrary(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "MYMAC"), []byte("MYMAC MACRO\n        MEND\n"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	fp := NewFileProvider([]config.LibPath{{Path: dir}}, nil)
	ctx := context.Background()

	if !fp.HasLibrary(ctx, "mymac") {
		t.Fatal("expected HasLibrary to find MYMAC case-insensitively on disk")
	}

	src, ok, err := fp.GetLibrary(ctx, "MYMAC")
	if err != nil || !ok {
		t.Fatalf("expected GetLibrary to find MYMAC, got ok=%v err=%v", ok, err)
	}
	if src.Text == "" {
		t.Error("expected non-empty source text")
	}
}

func TestFileProvider_GetLibrary_NotFound(t *testing.T) {
	fp := NewFileProvider([]config.LibPath{{Path: t.TempDir()}}, nil)
	_, ok, err := fp.GetLibrary(context.Background(), "NOSUCH")
	if err != nil {
		t.Fatalf("expected no error for a missing member, got %v", err)
	}
	if ok {
		t.Error("expected ok=false for a missing member")
	}
}

func TestFileProvider_ParseLibrary_RegistersResult(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "COPYMEM"), []byte("DS F\n"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	fp := NewFileProvider([]config.LibPath{{Path: dir}}, nil)
	actx := &fakeAnalysisContext{}

	ok, err := fp.ParseLibrary(context.Background(), "COPYMEM", actx, 0)
	if err != nil || !ok {
		t.Fatalf("expected ParseLibrary to succeed, got ok=%v err=%v", ok, err)
	}
	if actx.name != "COPYMEM" || !actx.ok {
		t.Errorf("expected RegisterResult called with COPYMEM/true, got %+v", actx)
	}
}

func TestFileProvider_ExtraExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "MAC1.mac"), []byte("MAC1 MACRO\n        MEND\n"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	fp := NewFileProvider([]config.LibPath{{Path: dir}}, []string{".mac"})
	if !fp.HasLibrary(context.Background(), "MAC1") {
		t.Error("expected HasLibrary to try the extra extension")
	}
}
