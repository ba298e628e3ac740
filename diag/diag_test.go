package diag

import "testing"

func TestCollector_AddAndAll(t *testing.T) {
	c := NewCollector()
	c.Add(Errorf("E001", Range{}, "bad thing: %d", 1))
	c.Add(New("W001", SeverityWarning, Range{}, "warning thing"))

	all := c.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(all))
	}
	if all[0].Message != "bad thing: 1" {
		t.Errorf("unexpected message: %q", all[0].Message)
	}
	if all[1].Severity != SeverityWarning {
		t.Errorf("expected SeverityWarning, got %v", all[1].Severity)
	}
}

func TestCollector_Limit(t *testing.T) {
	c := NewCollector()
	c.SetLimit(2)
	for i := 0; i < 5; i++ {
		c.Add(New("E001", SeverityError, Range{}, "x"))
	}

	if len(c.All()) != 2 {
		t.Fatalf("expected 2 retained diagnostics, got %d", len(c.All()))
	}
	if c.Dropped() != 3 {
		t.Errorf("expected 3 dropped, got %d", c.Dropped())
	}
}

func TestCollector_FrameStack(t *testing.T) {
	c := NewCollector()
	c.PushFrame(Frame{File: "outer.hlasm", Line: 1})
	c.PushFrame(Frame{File: "inner.hlasm", Line: 2, MacroName: "MAC"})
	c.Add(New("E001", SeverityError, Range{}, "inside macro"))
	c.PopFrame()
	c.Add(New("E002", SeverityError, Range{}, "back in outer"))
	c.PopFrame()

	all := c.All()
	if len(all[0].Stack) != 2 {
		t.Fatalf("expected 2-deep stack on first diagnostic, got %d", len(all[0].Stack))
	}
	if all[0].Stack[1].MacroName != "MAC" {
		t.Errorf("expected innermost frame to carry macro name, got %+v", all[0].Stack[1])
	}
	if len(all[1].Stack) != 1 {
		t.Fatalf("expected 1-deep stack on second diagnostic, got %d", len(all[1].Stack))
	}
}

func TestCollector_Child_RetagsRange(t *testing.T) {
	parent := NewCollector()
	base := Range{Start: Position{File: "a.hlasm", Line: 10, Column: 5}}
	child := parent.Child(base)

	child.Add(New("E001", SeverityError, Range{Start: Position{File: "a.hlasm", Line: 999, Column: 0}}, "deferred field error"))

	all := parent.All()
	if len(all) != 1 {
		t.Fatalf("expected diagnostic relayed to parent, got %d", len(all))
	}
	if all[0].Range != base {
		t.Errorf("expected child diagnostic retagged with base range, got %+v", all[0].Range)
	}
}

func TestSeverity_String(t *testing.T) {
	cases := map[Severity]string{
		SeverityError:   "error",
		SeverityWarning: "warning",
		SeverityInfo:    "info",
		SeverityHint:    "hint",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}

func TestDiagnostic_String(t *testing.T) {
	d := New("E047", SeverityError, Range{Start: Position{File: "a.hlasm", Line: 1, Column: 2}}, "boom")
	got := d.String()
	if got == "" {
		t.Fatal("expected non-empty String()")
	}
}
