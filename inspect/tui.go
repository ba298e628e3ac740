// Package inspect provides editor-adjacent session viewers over an
// analyzer.Result: a terminal inspector (tcell/tview) and a minimal
// desktop viewer (fyne), adapted from the teacher's debugger TUI/GUI
// (debugger/tui.go, debugger/gui.go) but showing diagnostics, the symbol
// store and the processing stack instead of CPU/memory state, since this
// system has no execution to debug (spec.md §1 non-goals).
package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/hlasm-ls/analyzer"
	"github.com/lookbusy1344/hlasm-ls/diag"
	"github.com/lookbusy1344/hlasm-ls/processing"
)

// TUI is a terminal session inspector over one analyzer.Result: a
// diagnostics list, a symbol-store browser, and a processor/provider
// stack view, laid out the way the teacher's debugger.TUI lays out its
// source/register/memory panels.
type TUI struct {
	Result *analyzer.Result

	App   *tview.Application
	Pages *tview.Pages

	MainLayout *tview.Flex

	DiagnosticsView *tview.TextView
	SymbolsView     *tview.TextView
	StackView       *tview.TextView
	SourceView      *tview.TextView
	CommandInput    *tview.InputField

	sourceLines []string
	filter      string
}

// NewTUI builds a terminal inspector over result. source is the analyzed
// file's text, used only to populate the source panel; pass "" if
// unavailable.
func NewTUI(result *analyzer.Result, source string) *TUI {
	t := &TUI{
		Result:      result,
		App:         tview.NewApplication(),
		sourceLines: strings.Split(source, "\n"),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.RefreshAll()
	return t
}

func (t *TUI) initializeViews() {
	t.DiagnosticsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DiagnosticsView.SetBorder(true).SetTitle(" Diagnostics ")

	t.SymbolsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.SymbolsView.SetBorder(true).SetTitle(" Symbols ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Processor / Provider Stack ")

	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.CommandInput = tview.NewInputField().SetLabel("filter> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Filter diagnostics ")
	t.CommandInput.SetDoneFunc(t.handleFilter)
}

func (t *TUI) buildLayout() {
	leftPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.StackView, 0, 1, false)

	rightPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.DiagnosticsView, 0, 2, false).
		AddItem(t.SymbolsView, 0, 2, false)

	mainContent := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(leftPanel, 0, 2, false).
		AddItem(rightPanel, 0, 2, false)

	t.MainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 5, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleFilter(key tcell.Key) {
	if key == tcell.KeyEnter {
		t.filter = strings.TrimSpace(t.CommandInput.GetText())
		t.RefreshAll()
	}
}

// Run starts the inspector's event loop.
func (t *TUI) Run() error { return t.App.SetRoot(t.Pages, true).Run() }

// RefreshAll repaints every panel from the current Result.
func (t *TUI) RefreshAll() {
	t.updateDiagnosticsView()
	t.updateSymbolsView()
	t.updateStackView()
	t.updateSourceView()
	if t.App != nil {
		t.App.Draw()
	}
}

func (t *TUI) updateDiagnosticsView() {
	var b strings.Builder
	for _, d := range t.Result.Diags.All() {
		if t.filter != "" && !strings.Contains(strings.ToUpper(d.Code+" "+d.Message), strings.ToUpper(t.filter)) {
			continue
		}
		color := severityColor(d.Severity)
		fmt.Fprintf(&b, "[%s]%s[white] %s: %s\n", color, d.Code, d.Range.Start, d.Message)
	}
	if dropped := t.Result.Diags.Dropped(); dropped > 0 {
		fmt.Fprintf(&b, "[yellow](%d further diagnostics dropped by the configured limit)[white]\n", dropped)
	}
	t.DiagnosticsView.SetText(b.String())
}

func severityColor(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return "red"
	case diag.SeverityWarning:
		return "yellow"
	case diag.SeverityInfo:
		return "blue"
	default:
		return "gray"
	}
}

func (t *TUI) updateSymbolsView() {
	store := t.Result.Store
	var b strings.Builder

	ord := store.Ordinary.All()
	sort.Slice(ord, func(i, j int) bool { return ord[i].Name < ord[j].Name })
	fmt.Fprintf(&b, "[yellow]Ordinary symbols (%d)[white]\n", len(ord))
	for _, s := range ord {
		fmt.Fprintf(&b, "  %-10s %-8s value=%d type=%c\n", s.Name, s.Section, s.Value, s.Attrs.Type)
	}

	seq := store.Sequence.All()
	sort.Slice(seq, func(i, j int) bool { return seq[i].Name < seq[j].Name })
	fmt.Fprintf(&b, "\n[yellow]Sequence symbols (%d)[white]\n", len(seq))
	for _, s := range seq {
		fmt.Fprintf(&b, "  %-10s kind=%d\n", s.Name, s.Kind)
	}

	glob := store.Global.All()
	sort.Slice(glob, func(i, j int) bool { return glob[i].Name < glob[j].Name })
	fmt.Fprintf(&b, "\n[yellow]Global SET variables (%d)[white]\n", len(glob))
	for _, v := range glob {
		fmt.Fprintf(&b, "  %-10s %s\n", v.Name, v.Type)
	}

	t.SymbolsView.SetText(b.String())
}

func (t *TUI) updateStackView() {
	var b strings.Builder
	for i, p := range t.Result.Manager.ProcessorStack() {
		fmt.Fprintf(&b, "%d: %s\n", i, processorLabel(p))
	}
	t.StackView.SetText(b.String())
}

func processorLabel(p *processing.Processor) string {
	switch p.Kind {
	case processing.ProcKindMacroDefinition:
		if p.MacroDef != nil && p.MacroDef.Def != nil {
			return fmt.Sprintf("macro-definition(%s)", p.MacroDef.Def.Name)
		}
		return "macro-definition"
	case processing.ProcKindCopyDefinition:
		if p.CopyDef != nil {
			return fmt.Sprintf("copy-definition(%s)", p.CopyDef.Member)
		}
		return "copy-definition"
	case processing.ProcKindLookahead:
		if p.Lookahead != nil {
			return fmt.Sprintf("lookahead(target=%s)", p.Lookahead.Target)
		}
		return "lookahead"
	default:
		return p.Kind.String()
	}
}

func (t *TUI) updateSourceView() {
	t.SourceView.SetText(strings.Join(t.sourceLines, "\n"))
}
