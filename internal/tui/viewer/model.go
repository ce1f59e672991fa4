// Package viewer is the three-pane terminal viewer for archives and answers.
package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/pakagent/internal/core/styles"
)

type pane int

const (
	paneInfo pane = iota
	paneList
	paneDetail
	paneCount
)

const helpText = "tab focus • ↑/↓ scroll/select • pgup/pgdn page • g/G top/bottom • y copy detail • q quit"

// copyFunc writes to the system clipboard. Package-level for tests.
var copyFunc = clipboard.WriteAll

type statusMsg string

// Model is the bubbletea model behind the viewer.
type Model struct {
	content  Content
	panes    [paneCount]viewport.Model
	focus    pane
	selected int
	status   string
	width    int
	height   int
	ready    bool
}

// New creates a viewer model for c.
func New(c Content) Model {
	m := Model{content: c, focus: paneList}
	for i := range m.panes {
		m.panes[i] = viewport.New(0, 0)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.focus = (m.focus + 1) % paneCount
		case "shift+tab":
			m.focus = (m.focus + paneCount - 1) % paneCount
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.panes[m.focus].PageUp()
		case "pgdown":
			m.panes[m.focus].PageDown()
		case "g", "home":
			m.jump(false)
		case "G", "end":
			m.jump(true)
		case "y":
			return m, m.copyDetail()
		}
		return m, nil
	}
	return m, nil
}

// move scrolls the focused pane, or changes the selection in the list pane.
func (m *Model) move(delta int) {
	if m.focus != paneList {
		if delta < 0 {
			m.panes[m.focus].ScrollUp(1)
		} else {
			m.panes[m.focus].ScrollDown(1)
		}
		return
	}
	m.selectItem(m.selected + delta)
}

func (m *Model) jump(bottom bool) {
	if m.focus == paneList {
		if bottom {
			m.selectItem(len(m.content.Items) - 1)
		} else {
			m.selectItem(0)
		}
		return
	}
	if bottom {
		m.panes[m.focus].GotoBottom()
	} else {
		m.panes[m.focus].GotoTop()
	}
}

func (m *Model) selectItem(i int) {
	if len(m.content.Items) == 0 {
		return
	}
	i = max(0, min(i, len(m.content.Items)-1))
	if i == m.selected {
		return
	}
	m.selected = i
	m.refresh()
	m.panes[paneDetail].GotoTop()
	m.scrollToSelection()
}

// scrollToSelection keeps the selected item visible in the list pane.
func (m *Model) scrollToSelection() {
	vp := &m.panes[paneList]
	start := 0
	for i := 0; i < m.selected; i++ {
		start += len(m.content.Items[i].Lines) + 1
	}
	end := start + len(m.content.Items[m.selected].Lines)
	switch {
	case start < vp.YOffset:
		vp.SetYOffset(start)
	case end > vp.YOffset+vp.Height:
		vp.SetYOffset(end - vp.Height)
	}
}

func (m Model) copyDetail() tea.Cmd {
	text := strings.Join(m.selectedDetail(), "\n")
	return func() tea.Msg {
		if err := copyFunc(text); err != nil {
			return statusMsg("copy failed: " + err.Error())
		}
		return statusMsg("copied to clipboard")
	}
}

func (m Model) selectedDetail() []string {
	if m.selected < 0 || m.selected >= len(m.content.Items) {
		return nil
	}
	return m.content.Items[m.selected].Detail
}

func (m *Model) layout() {
	innerW := max(m.width-2, 10)
	// title, help and status lines, plus two borders per row of panes
	avail := max(m.height-3-4, 6)
	topH := avail / 3
	bottomH := avail - topH - 2

	halfW := max(innerW/2-1, 5)
	m.panes[paneInfo].Width, m.panes[paneInfo].Height = halfW, topH
	m.panes[paneList].Width, m.panes[paneList].Height = innerW-halfW-2, topH
	m.panes[paneDetail].Width, m.panes[paneDetail].Height = innerW, max(bottomH, 3)

	m.refresh()
}

func (m *Model) refresh() {
	m.panes[paneInfo].SetContent(strings.Join(m.content.Info, "\n"))
	m.panes[paneList].SetContent(m.renderList())

	detail := m.selectedDetail()
	if len(detail) == 0 {
		m.panes[paneDetail].SetContent(styles.MutedStyle.Render("Nothing selected"))
		return
	}
	m.panes[paneDetail].SetContent(strings.Join(detail, "\n"))
}

func (m Model) renderList() string {
	if len(m.content.Items) == 0 {
		return styles.MutedStyle.Render(m.content.Empty)
	}
	var b strings.Builder
	for i, item := range m.content.Items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		for j, line := range item.Lines {
			if j > 0 {
				b.WriteString("\n")
			}
			if i == m.selected {
				b.WriteString(styles.SelectedRowStyle.Render(line))
			} else {
				b.WriteString(line)
			}
		}
	}
	return b.String()
}

func (m Model) renderPane(p pane, title string) string {
	style := styles.PaneStyle
	if m.focus == p {
		style = styles.PaneFocusedStyle
	}
	vp := m.panes[p]

	scroll := ""
	if vp.TotalLineCount() > vp.VisibleLineCount() {
		scroll = styles.MutedStyle.Render(fmt.Sprintf(" %3.0f%%", vp.ScrollPercent()*100))
	}
	header := styles.PaneTitleStyle.Render(title) + scroll
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, header, vp.View()))
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(paneInfo, m.content.InfoTitle),
		m.renderPane(paneList, m.content.ListTitle),
	)

	status := m.status
	if len(m.content.Items) > 0 {
		status = fmt.Sprintf("%d/%d  %s", m.selected+1, len(m.content.Items), status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.HeaderStyle.Render(m.content.Title),
		top,
		m.renderPane(paneDetail, m.content.DetailTitle),
		styles.HelpStyle.Render(helpText),
		styles.MutedStyle.Render(status),
	)
}

// Run shows c full screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, c Content) error {
	p := tea.NewProgram(New(c), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}
