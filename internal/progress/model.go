package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"
)

var _emojiIcons = map[Status]string{
	StatusPending: "\u23f3",
	StatusParsing: "\U0001f50d",
	StatusDone:    "\u2705",
	StatusCached:  "\u26a1",
	StatusFailed:  "\u274c",
}

var _boringIcons = map[Status]string{
	StatusPending: "[      ]",
	StatusParsing: "[parse] ",
	StatusDone:    "[ok]    ",
	StatusCached:  "[cached]",
	StatusFailed:  "[FAIL]  ",
}

// fileState tracks a single file's render state.
type fileState struct {
	name     string
	status   Status
	ids      int
	duration time.Duration
	err      string
}

// model is the bubbletea model for batch progress. Rows keep attach order.
type model struct {
	files  map[string]*fileState
	order  []string
	width  int
	boring bool
	sealed bool
}

func newModel(boring bool) *model {
	return &model{boring: boring, files: make(map[string]*fileState)}
}

// fileAddedMsg registers a file row.
type fileAddedMsg struct{ name string }

// fileEventMsg carries one Event for a file.
type fileEventMsg struct {
	name  string
	event Event
}

// sealedMsg signals that every attached stream has been drained.
type sealedMsg struct{}

// Init implements tea.Model.
func (*model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case fileAddedMsg:
		m.add(msg.name)
	case fileEventMsg:
		m.apply(msg.name, msg.event)
	case sealedMsg:
		m.sealed = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) add(name string) *fileState {
	st, ok := m.files[name]
	if !ok {
		st = &fileState{name: name}
		m.files[name] = st
		m.order = append(m.order, name)
	}
	return st
}

func (m *model) apply(name string, ev Event) {
	st := m.add(name)
	if st.status.terminal() {
		return
	}
	st.status = ev.Status
	switch ev.Status {
	case StatusDone, StatusCached:
		st.ids = ev.IDs
		st.duration = ev.Duration.Round(time.Millisecond)
	case StatusFailed:
		st.err = "unknown error"
		if ev.Err != nil {
			st.err = ev.Err.Error()
		}
	default:
	}
}

// counts returns how many files finished and how many of those failed.
func (m *model) counts() (finished, failed int) {
	for _, st := range m.files {
		if st.status.terminal() {
			finished++
		}
		if st.status == StatusFailed {
			failed++
		}
	}
	return finished, failed
}

var (
	_headerStyle = lipgloss.NewStyle().Bold(true)
	_errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	_dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// View implements tea.Model.
func (m *model) View() string {
	var b strings.Builder

	finished, failed := m.counts()
	header := fmt.Sprintf("Validating %d/%d file(s)", finished, len(m.order))
	if failed > 0 {
		header += fmt.Sprintf(", %d failed", failed)
	}
	_, _ = b.WriteString(_headerStyle.Render(header))
	_ = b.WriteByte('\n')

	icons := _emojiIcons
	if m.boring {
		icons = _boringIcons
	}

	for _, name := range m.order {
		st := m.files[name]
		detail := "--"
		switch st.status {
		case StatusParsing:
			detail = "..."
		case StatusDone, StatusCached:
			detail = fmt.Sprintf("%d ids  %s", st.ids, st.duration)
		case StatusFailed:
			detail = _errStyle.Render(m.clip(st.err))
		default:
		}
		_, _ = fmt.Fprintf(&b, "  %s %s  %s\n", icons[st.status], st.name, detail)
	}

	if m.sealed {
		_, _ = b.WriteString(_dimStyle.Render("done"))
		_ = b.WriteByte('\n')
	}
	return b.String()
}

// clip shortens s to fit the terminal width when it is known.
func (m *model) clip(s string) string {
	const margin = 20
	if m.width <= margin || len(s) <= m.width-margin {
		return s
	}
	return s[:m.width-margin-3] + "..."
}
