package inspect

import (
	"fmt"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/lookbusy1344/hlasm-ls/analyzer"
)

// DesktopViewer is a minimal desktop diagnostics viewer window, adapted
// from the teacher's debugger.GUI (debugger/gui.go) but showing
// diagnostics and the symbol table instead of CPU/memory state.
type DesktopViewer struct {
	Result *analyzer.Result

	App    fyne.App
	Window fyne.Window

	DiagnosticsList *widget.List
	SymbolsView     *widget.TextGrid
	StatusLabel     *widget.Label

	diagTexts []string
}

// NewDesktopViewer builds (but does not show) a desktop viewer window
// over result.
func NewDesktopViewer(result *analyzer.Result) *DesktopViewer {
	myApp := app.New()
	myWindow := myApp.NewWindow("HLASM analyzer — " + result.Filename)

	v := &DesktopViewer{
		Result: result,
		App:    myApp,
		Window: myWindow,
	}
	v.build()
	return v
}

func (v *DesktopViewer) build() {
	v.refreshDiagnosticTexts()

	v.DiagnosticsList = widget.NewList(
		func() int { return len(v.diagTexts) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(v.diagTexts[i])
		},
	)

	v.SymbolsView = widget.NewTextGrid()
	v.SymbolsView.SetText(v.symbolsText())

	v.StatusLabel = widget.NewLabel(v.statusText())

	split := container.NewHSplit(
		container.NewBorder(widget.NewLabel("Diagnostics"), nil, nil, nil, v.DiagnosticsList),
		container.NewBorder(widget.NewLabel("Symbols"), nil, nil, nil, container.NewScroll(v.SymbolsView)),
	)
	split.Offset = 0.5

	content := container.NewBorder(nil, v.StatusLabel, nil, nil, split)
	v.Window.SetContent(content)
	v.Window.Resize(fyne.NewSize(900, 600))
}

func (v *DesktopViewer) refreshDiagnosticTexts() {
	v.diagTexts = v.diagTexts[:0]
	for _, d := range v.Result.Diagnostics {
		v.diagTexts = append(v.diagTexts, fmt.Sprintf("%s %s: %s", d.Code, d.Range.Start, d.Message))
	}
}

func (v *DesktopViewer) symbolsText() string {
	var b strings.Builder
	ord := v.Result.Store.Ordinary.All()
	sort.Slice(ord, func(i, j int) bool { return ord[i].Name < ord[j].Name })
	for _, s := range ord {
		fmt.Fprintf(&b, "%-10s %-8s value=%d\n", s.Name, s.Section, s.Value)
	}
	return b.String()
}

func (v *DesktopViewer) statusText() string {
	return fmt.Sprintf("%d diagnostics, %d statements processed",
		len(v.Result.Diagnostics), v.Result.Manager.StatementCount)
}

// ShowAndRun displays the window and blocks until it is closed.
func (v *DesktopViewer) ShowAndRun() { v.Window.ShowAndRun() }
