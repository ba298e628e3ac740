package tools

import (
	"strings"
	"testing"
)

func TestLintLevel_String(t *testing.T) {
	cases := map[LintLevel]string{
		LintError:   "error",
		LintWarning: "warning",
		LintInfo:    "info",
		LintHint:    "hint",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("LintLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestLinter_UnusedSymbol(t *testing.T) {
	source := "UNUSEDLBL DS F\n"
	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.hlasm")

	found := false
	for _, issue := range issues {
		if issue.Code == "UNUSED_SYMBOL" && strings.Contains(issue.Message, "UNUSEDLBL") {
			found = true
			if issue.Level != LintWarning {
				t.Errorf("expected UNUSED_SYMBOL to be a warning, got %v", issue.Level)
			}
		}
	}
	if !found {
		t.Errorf("expected an UNUSED_SYMBOL issue for UNUSEDLBL, got %v", issues)
	}
}

func TestLinter_UndefinedSymbol(t *testing.T) {
	source := "LBL DS A(UNDEFSYM)\n"
	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.hlasm")

	found := false
	for _, issue := range issues {
		if issue.Code == "UNDEF_SYMBOL" && strings.Contains(issue.Message, "UNDEFSYM") {
			found = true
			if issue.Level != LintError {
				t.Errorf("expected UNDEF_SYMBOL to be an error, got %v", issue.Level)
			}
		}
	}
	if !found {
		t.Errorf("expected an UNDEF_SYMBOL issue for UNDEFSYM, got %v", issues)
	}
}

func TestLinter_SpecialLabelsNotFlaggedUnused(t *testing.T) {
	source := "START DS F\n"
	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.hlasm")

	for _, issue := range issues {
		if issue.Code == "UNUSED_SYMBOL" && strings.Contains(issue.Message, "START") {
			t.Errorf("did not expect START to be flagged as unused, got %v", issue)
		}
	}
}

func TestLinter_DisabledChecks(t *testing.T) {
	source := "UNUSEDLBL DS F\nLBL DS A(UNDEFSYM)\n"
	opts := &LintOptions{CheckUnused: false, CheckUndefined: false}
	issues := NewLinter(opts).Lint(source, "test.hlasm")

	for _, issue := range issues {
		if issue.Code == "UNUSED_SYMBOL" || issue.Code == "UNDEF_SYMBOL" {
			t.Errorf("expected xref checks disabled, got %v", issue)
		}
	}
}

func TestLinter_IssuesSortedByPosition(t *testing.T) {
	source := "AAA DS A(UNDEFSYM)\nBBB DS F\n"
	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.hlasm")

	for i := 1; i < len(issues); i++ {
		prev, cur := issues[i-1], issues[i]
		if cur.Line < prev.Line || (cur.Line == prev.Line && cur.Column < prev.Column) {
			t.Errorf("issues not sorted by position: %v before %v", prev, cur)
		}
	}
}

func TestLintIssue_String(t *testing.T) {
	issue := &LintIssue{Level: LintError, Line: 3, Column: 5, Message: "boom", Code: "X"}
	got := issue.String()
	if !strings.Contains(got, "3:5") || !strings.Contains(got, "boom") || !strings.Contains(got, "X") {
		t.Errorf("unexpected LintIssue.String() output: %q", got)
	}
}

func TestDefaultLintOptions(t *testing.T) {
	opts := DefaultLintOptions()
	if !opts.CheckUnused || !opts.CheckUndefined {
		t.Errorf("expected default options to enable both checks, got %+v", opts)
	}
}
