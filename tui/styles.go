package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"asset-manifest/workspace"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorPrimary lipgloss.TerminalColor = ac("27", "62")
	colorMuted   lipgloss.TerminalColor = ac("240", "243")
	colorSuccess lipgloss.TerminalColor = ac("28", "42")
	colorInfo    lipgloss.TerminalColor = ac("31", "39")
	colorWarn    lipgloss.TerminalColor = ac("136", "214")
	colorDanger  lipgloss.TerminalColor = ac("160", "203")
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	crumbStyle        = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	dimStyle          = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle      = lipgloss.NewStyle().Foreground(colorSuccess)
	infoStyle         = lipgloss.NewStyle().Foreground(colorInfo)
	warnStyle         = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle         = lipgloss.NewStyle().Foreground(colorDanger)
	folderStyle       = lipgloss.NewStyle().Bold(true)
	dangerBannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(colorDanger)
	footerStyle       = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
)

func renderHeader(crumbs ...string) string {
	s := titleStyle.Render("asset-manifest")
	if len(crumbs) > 0 {
		s += crumbStyle.Render(" › " + strings.Join(crumbs, " › "))
	}
	return s + "\n\n"
}

func renderFooter(help string) string {
	return "\n" + footerStyle.Render(help) + "\n"
}

func levelStyle(l workspace.Level) lipgloss.Style {
	switch l {
	case workspace.LevelSuccess:
		return successStyle
	case workspace.LevelWarning:
		return warnStyle
	case workspace.LevelError:
		return failStyle
	default:
		return infoStyle
	}
}

func levelIcon(l workspace.Level) string {
	switch l {
	case workspace.LevelSuccess:
		return "✓"
	case workspace.LevelWarning:
		return "!"
	case workspace.LevelError:
		return "✗"
	default:
		return "i"
	}
}
