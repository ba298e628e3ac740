package library

import (
	"context"
	"testing"
)

func TestEmpty_NeverFindsAnything(t *testing.T) {
	var p Empty
	ctx := context.Background()

	if p.HasLibrary(ctx, "ANY") {
		t.Error("expected Empty.HasLibrary to always report false")
	}

	src, ok, err := p.GetLibrary(ctx, "ANY")
	if err != nil || ok || src.Text != "" {
		t.Errorf("expected empty not-found result, got %+v ok=%v err=%v", src, ok, err)
	}

	ok, err = p.ParseLibrary(ctx, "ANY", nil, KindMacro)
	if err != nil || ok {
		t.Errorf("expected ParseLibrary to report false/nil, got ok=%v err=%v", ok, err)
	}
}
