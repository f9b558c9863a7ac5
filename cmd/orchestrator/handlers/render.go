package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/orchestrator/internal/setup"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	skipStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// renderReport produces a lipgloss-styled table of the report outcomes.
func renderReport(r *setup.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  orchestrator %s", r.Operation)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  run %s", r.RunID)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 50)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-14s %-11s %9s", "Kind", "Status", "Duration")))
	b.WriteString("\n")

	for _, o := range r.Outcomes {
		label, style := outcomeLabel(r.Operation, o)
		fmt.Fprintf(&b, "  %-14s %s %9s\n",
			o.Kind,
			style.Render(fmt.Sprintf("%-11s", label)),
			o.Duration.Round(time.Millisecond),
		)
		if o.Err != nil {
			b.WriteString(dimStyle.Render("    " + o.Err.Error()))
			b.WriteString("\n")
		}
	}

	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 50)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-14s %s\n", "Total", r.Duration.Round(time.Millisecond))
	return b.String()
}

func outcomeLabel(op setup.Operation, o setup.Outcome) (string, lipgloss.Style) {
	switch {
	case o.Skipped:
		return "skipped", skipStyle
	case o.Err != nil:
		return "failed", failStyle
	case op == setup.OpTeardown:
		return "deleted", okStyle
	case o.Ready:
		return "ready", okStyle
	}
	return "not ready", failStyle
}
