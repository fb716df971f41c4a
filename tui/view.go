package tui

import (
	"fmt"
	"path"
	"strings"

	"asset-manifest/manifest"
	"asset-manifest/scan"
)

func (m Model) View() string {
	switch m.currentView {
	case viewLoading:
		return m.viewLoading()
	case viewTree, viewAnalyze, viewHistory:
		return m.viewScroll()
	case viewMultiPick:
		return m.viewMultiPick()
	case viewPick:
		return m.picker.View() + renderFooter("j/k navigate | / filter | enter select | esc back")
	case viewInput:
		return m.viewInput()
	case viewConfirm:
		return m.viewConfirm()
	case viewResult:
		return m.viewResult()
	default:
		return m.viewMenu()
	}
}

func (m Model) title() string {
	for _, item := range menuItems {
		if item.action == m.action {
			return item.label
		}
	}
	return ""
}

func (m Model) viewMenu() string {
	s := renderHeader()

	for i, item := range menuItems {
		if i == m.cursor {
			s += selectedStyle.Render(fmt.Sprintf("> %-15s", item.label)) + " " + dimStyle.Render(item.description) + "\n"
		} else {
			s += fmt.Sprintf("  %-15s %s\n", item.label, dimStyle.Render(item.description))
		}
	}

	s += renderFooter("j/k navigate | enter select | q quit")
	return s
}

func (m Model) viewLoading() string {
	return renderHeader(m.title()) + m.spinner.View() + " Working...\n"
}

// scrollLines is the content of the tree, analyze and history views.
func (m Model) scrollLines() []string {
	switch m.currentView {
	case viewTree:
		if m.snap == nil {
			return nil
		}
		return treeLines(m.snap.Tree, 0, nil)
	case viewAnalyze:
		if m.snap == nil {
			return nil
		}
		var lines []string
		if len(m.snap.BrokenLinks) == 0 && len(m.snap.UntrackedFiles) == 0 {
			return []string{successStyle.Render("✓ Manifest and disk agree.")}
		}
		lines = append(lines, failStyle.Render(fmt.Sprintf("Broken links (%d)", len(m.snap.BrokenLinks))))
		for _, p := range m.snap.BrokenLinks {
			lines = append(lines, "  "+p)
		}
		lines = append(lines, "", warnStyle.Render(fmt.Sprintf("Untracked files (%d, %s)", len(m.snap.UntrackedFiles), scan.ToHumanSize(m.snap.UntrackedSize))))
		for _, p := range m.snap.UntrackedFiles {
			lines = append(lines, "  "+p)
		}
		return lines
	case viewHistory:
		if len(m.history) == 0 {
			return []string{dimStyle.Render("No operations recorded.")}
		}
		lines := make([]string, 0, len(m.history))
		for _, e := range m.history {
			line := fmt.Sprintf("%s  %-14s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action)
			if len(e.Sources) > 0 {
				line += " " + strings.Join(e.Sources, ", ")
			}
			if e.Dest != "" {
				line += " → " + e.Dest
			}
			if len(e.Errors) > 0 {
				line = failStyle.Render(line + " (" + strings.Join(e.Errors, "; ") + ")")
			}
			lines = append(lines, line)
		}
		return lines
	}
	return nil
}

func treeLines(nodes []manifest.Node, depth int, out []string) []string {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch n := n.(type) {
		case *manifest.Folder:
			out = append(out, indent+folderStyle.Render(n.Name+"/"))
			out = treeLines(n.Children, depth+1, out)
		case *manifest.File:
			out = append(out, indent+path.Base(n.Path)+dimStyle.Render("  "+n.Path))
		}
	}
	return out
}

func (m Model) viewScroll() string {
	s := renderHeader(m.title())
	lines := m.scrollLines()
	if m.currentView == viewTree && len(lines) == 0 {
		lines = []string{dimStyle.Render("The manifest is empty.")}
	}
	end := min(m.scrollOffset+m.visibleItemCount(), len(lines))
	start := min(m.scrollOffset, end)
	s += strings.Join(lines[start:end], "\n") + "\n"
	if end < len(lines) {
		s += dimStyle.Render(fmt.Sprintf("  ... %d more", len(lines)-end)) + "\n"
	}
	s += renderFooter("j/k scroll | esc back")
	return s
}

func (m Model) viewMultiPick() string {
	s := renderHeader(m.title(), "Select files")

	end := min(m.scrollOffset+m.visibleItemCount(), len(m.choices))
	for i := m.scrollOffset; i < end; i++ {
		box := "[ ]"
		if m.selected[i] {
			box = "[x]"
		}
		line := box + " " + m.choices[i]
		if i == m.pickCursor {
			s += selectedStyle.Render("> "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}
	s += dimStyle.Render(fmt.Sprintf("\n  %d of %d selected", len(m.selected), len(m.choices))) + "\n"
	s += renderFooter("j/k navigate | space toggle | a toggle all | enter continue | esc back")
	return s
}

func (m Model) viewInput() string {
	s := renderHeader(m.title())
	if len(m.paths) == 1 {
		s += dimStyle.Render(m.paths[0]) + "\n\n"
	} else if m.target != "" {
		s += dimStyle.Render(m.target) + "\n\n"
	}
	s += m.input.Placeholder + "\n" + m.input.View() + "\n"
	s += renderFooter("enter confirm | esc cancel")
	return s
}

func (m Model) viewConfirm() string {
	s := renderHeader(m.title(), "Confirm")
	s += dangerBannerStyle.Render(" "+strings.ToUpper(m.confirmTitle)+" ") + "\n\n"

	end := min(len(m.confirmItems), m.visibleItemCount())
	for _, item := range m.confirmItems[:end] {
		s += "  " + item + "\n"
	}
	if end < len(m.confirmItems) {
		s += dimStyle.Render(fmt.Sprintf("  ... %d more", len(m.confirmItems)-end)) + "\n"
	}
	s += renderFooter("y confirm | n cancel")
	return s
}

func (m Model) viewResult() string {
	s := renderHeader(m.title(), "Result")
	r := m.result
	st := levelStyle(r.Level)
	s += st.Render(levelIcon(r.Level)+" "+r.Message) + "\n"
	for _, n := range r.Notes {
		s += "  " + dimStyle.Render(n) + "\n"
	}
	if len(r.Failures) > 1 || (len(r.Failures) == 1 && r.Failures[0] != r.Message) {
		s += "\n"
		for _, f := range r.Failures {
			s += "  " + failStyle.Render(f) + "\n"
		}
	}
	s += renderFooter("enter menu | q quit")
	return s
}
