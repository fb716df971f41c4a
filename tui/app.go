// Package tui is the interactive terminal front-end. Every action loads a
// fresh snapshot, walks the user through the choices it needs and hands the
// final call to the workspace service.
package tui

import (
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"asset-manifest/journal"
	"asset-manifest/manifest"
	"asset-manifest/workspace"
)

// Service is the part of workspace.Service the TUI drives.
type Service interface {
	Snapshot() (*workspace.Snapshot, error)
	Cleanup() workspace.Result
	AddFiles(paths []string, target string) workspace.Result
	DeleteFiles(paths []string) workspace.Result
	MoveFiles(paths []string, destDir string) workspace.Result
	CopyFiles(paths []string, destDir string) workspace.Result
	RenameFile(p, newName string) workspace.Result
	CreateFolder(name, icon, parent string, physical bool) workspace.Result
	RenameFolder(folderPath, newName, icon string, physical bool) workspace.Result
	History(limit int) ([]journal.Entry, error)
}

type viewState int

const (
	viewMenu viewState = iota
	viewLoading
	viewTree
	viewAnalyze
	viewMultiPick
	viewPick
	viewInput
	viewConfirm
	viewResult
	viewHistory
)

type action int

const (
	actTree action = iota
	actAnalyze
	actClean
	actAdd
	actMove
	actCopy
	actDelete
	actRename
	actNewFolder
	actRenameFolder
	actHistory
)

type menuItem struct {
	label       string
	description string
	action      action
}

var menuItems = []menuItem{
	{"Tree", "Show the manifest tree", actTree},
	{"Analyze", "Compare the manifest with the disk", actAnalyze},
	{"Clean", "Remove broken links from the manifest", actClean},
	{"Add files", "Track untracked files under a folder", actAdd},
	{"Move file", "Move a tracked file to another directory", actMove},
	{"Copy file", "Copy a tracked file to another directory", actCopy},
	{"Delete files", "Delete tracked files from disk and manifest", actDelete},
	{"Rename file", "Rename a tracked file in place", actRename},
	{"New folder", "Add a folder to the manifest", actNewFolder},
	{"Rename folder", "Rename a manifest folder", actRenameFolder},
	{"History", "Recent operations", actHistory},
}

const historyLimit = 50

type snapshotMsg struct {
	snap *workspace.Snapshot
	err  error
}

type resultMsg struct {
	result workspace.Result
}

type historyMsg struct {
	entries []journal.Entry
	err     error
}

// pickItem is a path shown in the single-choice picker.
type pickItem string

func (i pickItem) Title() string       { return string(i) }
func (i pickItem) Description() string { return "" }
func (i pickItem) FilterValue() string { return string(i) }

type Model struct {
	svc         Service
	currentView viewState
	action      action
	cursor      int

	snap    *workspace.Snapshot
	history []journal.Entry

	// Multi-select state
	choices      []string
	selected     map[int]bool
	pickCursor   int
	scrollOffset int

	picker list.Model
	input  textinput.Model

	// Choices made so far in the current action.
	paths  []string
	target string

	confirmTitle string
	confirmItems []string

	result workspace.Result

	spinner spinner.Model

	width  int
	height int
}

func New(svc Service) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		svc:      svc,
		selected: make(map[int]bool),
		spinner:  sp,
		width:    80,
		height:   24,
	}
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(svc Service) error {
	_, err := tea.NewProgram(New(svc), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) loadSnapshot() tea.Cmd {
	svc := m.svc
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		snap, err := svc.Snapshot()
		return snapshotMsg{snap: snap, err: err}
	})
}

func (m Model) loadHistory() tea.Cmd {
	svc := m.svc
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		entries, err := svc.History(historyLimit)
		return historyMsg{entries: entries, err: err}
	})
}

// run switches to the loading view while fn executes.
func (m Model) run(fn func() workspace.Result) (tea.Model, tea.Cmd) {
	m.currentView = viewLoading
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return resultMsg{result: fn()}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.currentView == viewPick {
			m.picker.SetSize(msg.Width, m.listHeight())
		}
		return m, nil

	case spinner.TickMsg:
		if m.currentView == viewLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case snapshotMsg:
		if msg.err != nil {
			return m.showResult(workspace.Result{Level: workspace.LevelError, Message: msg.err.Error()})
		}
		m.snap = msg.snap
		return m.begin()

	case historyMsg:
		if msg.err != nil {
			return m.showResult(workspace.Result{Level: workspace.LevelError, Message: msg.err.Error()})
		}
		m.history = msg.entries
		m.scrollOffset = 0
		m.currentView = viewHistory
		return m, nil

	case resultMsg:
		return m.showResult(msg.result)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.currentView {
		case viewMenu:
			return m.updateMenu(msg)
		case viewTree, viewAnalyze, viewHistory:
			return m.updateScroll(msg)
		case viewMultiPick:
			return m.updateMultiPick(msg)
		case viewPick:
			return m.updatePick(msg)
		case viewInput:
			return m.updateInput(msg)
		case viewConfirm:
			return m.updateConfirm(msg)
		case viewResult:
			return m.updateResult(msg)
		}
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}
	case "enter":
		m.action = menuItems[m.cursor].action
		m.paths = nil
		m.target = ""
		m.currentView = viewLoading
		if m.action == actHistory {
			return m, m.loadHistory()
		}
		return m, m.loadSnapshot()
	}
	return m, nil
}

// begin starts the chosen action once a snapshot is loaded.
func (m Model) begin() (tea.Model, tea.Cmd) {
	m.scrollOffset = 0
	switch m.action {
	case actTree:
		m.currentView = viewTree
	case actAnalyze:
		m.currentView = viewAnalyze
	case actClean:
		if len(m.snap.BrokenLinks) == 0 {
			return m.run(m.svc.Cleanup)
		}
		return m.confirm("Remove these broken links from the manifest?", m.snap.BrokenLinks)
	case actAdd:
		if len(m.snap.UntrackedFiles) == 0 {
			return m.showResult(workspace.Result{Level: workspace.LevelInfo, Message: "No untracked files."})
		}
		m.startMultiPick(m.snap.UntrackedFiles)
	case actDelete:
		files := trackedFiles(m.snap)
		if len(files) == 0 {
			return m.showResult(workspace.Result{Level: workspace.LevelInfo, Message: "The manifest tracks no files."})
		}
		m.startMultiPick(files)
	case actMove, actCopy, actRename:
		files := trackedFiles(m.snap)
		if len(files) == 0 {
			return m.showResult(workspace.Result{Level: workspace.LevelInfo, Message: "The manifest tracks no files."})
		}
		m.startPick("Choose a file", files)
	case actNewFolder:
		return m.startInput("Folder name (parent/name for a nested folder)", "")
	case actRenameFolder:
		if len(m.snap.Folders) == 0 {
			return m.showResult(workspace.Result{Level: workspace.LevelInfo, Message: "The manifest has no folders."})
		}
		m.startPick("Choose a folder", m.snap.Folders)
	}
	return m, nil
}

func (m *Model) startMultiPick(choices []string) {
	m.choices = choices
	m.selected = make(map[int]bool)
	m.pickCursor = 0
	m.scrollOffset = 0
	m.currentView = viewMultiPick
}

func (m *Model) startPick(title string, choices []string) {
	items := make([]list.Item, len(choices))
	for i, c := range choices {
		items[i] = pickItem(c)
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	d.SetSpacing(0)

	l := list.New(items, d, m.width, m.listHeight())
	l.Title = title
	l.SetShowStatusBar(false)
	l.KeyMap.Quit.SetEnabled(false)
	m.picker = l
	m.currentView = viewPick
}

func (m Model) startInput(prompt, value string) (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Placeholder = prompt
	ti.Prompt = "› "
	ti.CharLimit = 255
	ti.Width = m.width - 4
	ti.SetValue(value)
	cmd := ti.Focus()
	m.input = ti
	m.currentView = viewInput
	return m, cmd
}

func (m Model) confirm(title string, items []string) (tea.Model, tea.Cmd) {
	m.confirmTitle = title
	m.confirmItems = items
	m.currentView = viewConfirm
	return m, nil
}

func (m Model) showResult(r workspace.Result) (tea.Model, tea.Cmd) {
	m.result = r
	m.currentView = viewResult
	return m, nil
}

func (m Model) backToMenu() (tea.Model, tea.Cmd) {
	m.currentView = viewMenu
	m.snap = nil
	return m, nil
}

func (m Model) updateScroll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.scrollOffset > 0 {
			m.scrollOffset--
		}
	case "down", "j":
		if m.scrollOffset < len(m.scrollLines())-1 {
			m.scrollOffset++
		}
	case "q", "esc", "backspace", "enter":
		return m.backToMenu()
	}
	return m, nil
}

func (m Model) updateMultiPick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.pickCursor > 0 {
			m.pickCursor--
			m.ensureCursorVisible()
		}
	case "down", "j":
		if m.pickCursor < len(m.choices)-1 {
			m.pickCursor++
			m.ensureCursorVisible()
		}
	case " ":
		if m.selected[m.pickCursor] {
			delete(m.selected, m.pickCursor)
		} else {
			m.selected[m.pickCursor] = true
		}
	case "a":
		if len(m.selected) == len(m.choices) {
			m.selected = make(map[int]bool)
		} else {
			for i := range m.choices {
				m.selected[i] = true
			}
		}
	case "enter":
		if len(m.selected) == 0 {
			m.selected[m.pickCursor] = true
		}
		m.paths = m.selectedChoices()
		switch m.action {
		case actAdd:
			if len(m.snap.Folders) == 0 {
				return m.showResult(workspace.Result{Level: workspace.LevelWarning, Message: "Create a folder first."})
			}
			m.startPick("Add to which folder?", m.snap.Folders)
			return m, nil
		case actDelete:
			return m.confirm("Delete these files from disk and manifest?", m.paths)
		}
	case "esc", "backspace", "q":
		return m.backToMenu()
	}
	return m, nil
}

func (m Model) selectedChoices() []string {
	var out []string
	for i, c := range m.choices {
		if m.selected[i] {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) ensureCursorVisible() {
	visible := m.visibleItemCount()
	if m.pickCursor < m.scrollOffset {
		m.scrollOffset = m.pickCursor
	}
	if m.pickCursor >= m.scrollOffset+visible {
		m.scrollOffset = m.pickCursor - visible + 1
	}
}

func (m Model) visibleItemCount() int {
	// header(2) + footer(2) + padding(2)
	available := m.height - 6
	if available < 5 {
		available = 5
	}
	return available
}

func (m Model) listHeight() int {
	return m.visibleItemCount() + 2
}

func (m Model) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch msg.String() {
		case "enter":
			item, ok := m.picker.SelectedItem().(pickItem)
			if !ok {
				return m, nil
			}
			return m.picked(string(item))
		case "esc":
			if m.picker.FilterState() == list.Unfiltered {
				return m.backToMenu()
			}
		}
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) picked(choice string) (tea.Model, tea.Cmd) {
	switch m.action {
	case actAdd:
		paths, target := m.paths, choice
		return m.run(func() workspace.Result { return m.svc.AddFiles(paths, target) })
	case actMove, actCopy:
		m.paths = []string{choice}
		return m.startInput("Destination directory (empty for the project root)", path.Dir(choice))
	case actRename:
		m.paths = []string{choice}
		return m.startInput("New name (the extension is kept when omitted)", path.Base(choice))
	case actRenameFolder:
		m.target = choice
		return m.startInput("New folder name", path.Base(choice))
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submit(strings.TrimSpace(m.input.Value()))
	case tea.KeyEsc:
		return m.backToMenu()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(value string) (tea.Model, tea.Cmd) {
	svc, paths, target := m.svc, m.paths, m.target
	switch m.action {
	case actMove:
		dest := value
		if dest == "." {
			dest = ""
		}
		return m.run(func() workspace.Result { return svc.MoveFiles(paths, dest) })
	case actCopy:
		dest := value
		if dest == "." {
			dest = ""
		}
		return m.run(func() workspace.Result { return svc.CopyFiles(paths, dest) })
	case actRename:
		return m.run(func() workspace.Result { return svc.RenameFile(paths[0], value) })
	case actNewFolder:
		parent, name := "", strings.Trim(value, "/")
		if i := strings.LastIndex(name, "/"); i >= 0 {
			parent, name = name[:i], name[i+1:]
		}
		return m.run(func() workspace.Result { return svc.CreateFolder(name, "", parent, false) })
	case actRenameFolder:
		return m.run(func() workspace.Result { return svc.RenameFolder(target, value, "", false) })
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		switch m.action {
		case actClean:
			return m.run(m.svc.Cleanup)
		case actDelete:
			svc, paths := m.svc, m.paths
			return m.run(func() workspace.Result { return svc.DeleteFiles(paths) })
		}
	case "n", "esc", "backspace", "q":
		return m.backToMenu()
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter", "esc", "backspace":
		return m.backToMenu()
	}
	return m, nil
}

// trackedFiles lists every File path in the snapshot's tree, sorted.
func trackedFiles(snap *workspace.Snapshot) []string {
	set := manifest.FilePaths(snap.Tree)
	files := make([]string, 0, len(set))
	for p := range set {
		files = append(files, p)
	}
	sort.Strings(files)
	return files
}
