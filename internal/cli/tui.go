package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nornoe/skyavatar/pkg/archive"
	"github.com/nornoe/skyavatar/pkg/avatar"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	listErrStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// browsePageSize is the number of records requested per page while browsing.
const browsePageSize = 25

// =============================================================================
// ArchiveModel - Interactive archive browser
// =============================================================================

// pager is the part of *archive.Browser the browser model needs.
type pager interface {
	List(ctx context.Context, limit int, cursor string) (*archive.Page, error)
}

// pageMsg carries one loaded archive page back into the model.
type pageMsg struct {
	page *archive.Page
	err  error
}

// ArchiveModel is the bubbletea model for browsing the avatar archive. Pages
// load lazily when the cursor reaches the end of what is loaded.
type ArchiveModel struct {
	Records  []avatar.ArchiveRecord
	Cursor   int
	Offset   int
	Height   int
	Selected *avatar.ArchiveRecord

	ctx     context.Context
	pager   pager
	next    string
	seen    map[string]bool
	loading bool
	done    bool
	err     error
	now     func() time.Time
}

// NewArchiveModel creates a browser over p.
func NewArchiveModel(ctx context.Context, p pager) ArchiveModel {
	return ArchiveModel{
		Height:  15,
		ctx:     ctx,
		pager:   p,
		seen:    map[string]bool{},
		loading: true,
		now:     time.Now,
	}
}

func (m ArchiveModel) Init() tea.Cmd {
	return m.load("")
}

func (m ArchiveModel) load(cursor string) tea.Cmd {
	ctx, p := m.ctx, m.pager
	return func() tea.Msg {
		page, err := p.List(ctx, browsePageSize, cursor)
		return pageMsg{page: page, err: err}
	}
}

func (m ArchiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pageMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.done = true
			return m, nil
		}
		m.Records = append(m.Records, msg.page.Records...)
		next := msg.page.Cursor
		if len(msg.page.Records) == 0 || next == "" || m.seen[next] {
			m.done = true
		} else {
			m.seen[next] = true
			m.next = next
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Records)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
			if m.Cursor >= len(m.Records)-1 && !m.done && !m.loading {
				m.loading = true
				return m, m.load(m.next)
			}
		case "enter":
			if len(m.Records) == 0 {
				return m, nil
			}
			rec := m.Records[m.Cursor]
			m.Selected = &rec
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ArchiveModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Avatar Archive"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Records) == 0 {
		switch {
		case m.err != nil:
			b.WriteString(listErrStyle.Render(m.err.Error()))
		case m.loading:
			b.WriteString(listDimStyle.Render("Loading..."))
		default:
			b.WriteString(listDimStyle.Render("No avatars published yet"))
		}
		b.WriteString("\n")
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Records) {
		end = len(m.Records)
	}

	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, archiveRow(m.Records[i], m.now())...))
	}

	t := archiveTable(rows, func(row int) bool { return m.Offset+row == m.Cursor }, true)
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	status := fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Records))
	switch {
	case m.loading:
		status += " loading more..."
	case !m.done:
		status += " more below"
	}
	b.WriteString(listDimStyle.Render(status))
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(listErrStyle.Render(m.err.Error()))
	}

	return b.String()
}

// =============================================================================
// Table rendering shared with "archive list"
// =============================================================================

var archiveHeaders = []string{"Published", "Shape", "Eyes", "Mouth", "Color", "Rotation", "Background"}

// archiveRow formats one record for a table.
func archiveRow(r avatar.ArchiveRecord, now time.Time) []string {
	return []string{
		formatRelativeTime(r.CreatedAt, now),
		r.Meta.Shape,
		r.Meta.Eyes,
		r.Meta.Mouth,
		r.Meta.Color,
		formatRotation(r.Meta.Rotation),
		r.Meta.Background,
	}
}

// archiveTable builds a bordered table. With a leading cursor column, current
// reports the highlighted row.
func archiveTable(rows [][]string, current func(row int) bool, cursorCol bool) *table.Table {
	headers := archiveHeaders
	colorCol := 4
	if cursorCol {
		headers = append([]string{""}, archiveHeaders...)
		colorCol++
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == colorCol && row < len(rows) {
				base = base.Foreground(lipgloss.Color(rows[row][col]))
			}
			if current != nil && current(row) {
				return base.Bold(true)
			}
			return base
		})
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
