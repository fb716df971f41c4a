package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"asset-manifest/journal"
	"asset-manifest/manifest"
	"asset-manifest/scan"
	"asset-manifest/workspace"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "31", Dark: "39"})
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "136", Dark: "214"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"})
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "243"})
	headStyle    = lipgloss.NewStyle().Bold(true)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResult prints r and turns an error-level result into a non-nil
// error so the process exits non-zero.
func writeResult(cmd *cobra.Command, app *App, r workspace.Result) error {
	out := cmd.OutOrStdout()
	if app.JSON {
		if err := writeJSON(out, r); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, renderResult(r))
	}
	if r.Failed() {
		return &ReportedError{Err: errors.New(r.Message)}
	}
	return nil
}

func renderResult(r workspace.Result) string {
	var b strings.Builder
	var icon string
	var st lipgloss.Style
	switch r.Level {
	case workspace.LevelSuccess:
		icon, st = "✓", successStyle
	case workspace.LevelWarning:
		icon, st = "!", warnStyle
	case workspace.LevelError:
		icon, st = "✗", errorStyle
	default:
		icon, st = "i", infoStyle
	}
	b.WriteString(st.Render(icon+" "+r.Message) + "\n")
	for _, n := range r.Notes {
		b.WriteString("  " + dimStyle.Render(n) + "\n")
	}
	if len(r.Failures) > 1 || (len(r.Failures) == 1 && r.Failures[0] != r.Message) {
		for _, f := range r.Failures {
			b.WriteString("  " + errorStyle.Render(f) + "\n")
		}
	}
	return b.String()
}

func renderTree(m *manifest.Manifest) string {
	var b strings.Builder
	b.WriteString(headStyle.Render(m.ProjectName) + "\n")
	writeNodes(&b, m.Tree, "")
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []manifest.Node, prefix string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		switch n := n.(type) {
		case *manifest.Folder:
			b.WriteString(prefix + branch + headStyle.Render(n.Name+"/") + "\n")
			writeNodes(b, n.Children, prefix+next)
		case *manifest.File:
			b.WriteString(prefix + branch + path.Base(n.Path) + "  " + dimStyle.Render(n.Path) + "\n")
		}
	}
}

func renderReport(r scan.Report) string {
	if r.Clean() {
		return successStyle.Render("✓ Manifest and disk agree.") + "\n"
	}
	var b strings.Builder
	b.WriteString(errorStyle.Render(fmt.Sprintf("Broken links (%d)", len(r.BrokenLinks))) + "\n")
	for _, p := range r.BrokenLinks {
		b.WriteString("  " + p + "\n")
	}
	b.WriteString(warnStyle.Render(fmt.Sprintf("Untracked files (%d, %s)", len(r.UntrackedFiles), scan.ToHumanSize(r.UntrackedSize))) + "\n")
	for _, p := range r.UntrackedFiles {
		b.WriteString("  " + p + "\n")
	}
	return b.String()
}

func renderHistory(entries []journal.Entry) string {
	if len(entries) == 0 {
		return dimStyle.Render("No operations recorded.") + "\n"
	}
	var b strings.Builder
	for _, e := range entries {
		line := dimStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04:05")) + "  " + fmt.Sprintf("%-14s", e.Action)
		if len(e.Sources) > 0 {
			line += " " + strings.Join(e.Sources, ", ")
		}
		if e.Dest != "" {
			line += " → " + e.Dest
		}
		switch workspace.Level(e.Level) {
		case workspace.LevelError:
			line += "  " + errorStyle.Render(strings.Join(e.Errors, "; "))
		case workspace.LevelWarning:
			line += "  " + warnStyle.Render("warning")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
