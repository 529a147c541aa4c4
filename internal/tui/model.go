// Package tui provides the Bubble Tea dataset browser.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/wfdrill/internal/model"
)

const (
	colNumberWidth   = 5
	colWrongWidth    = 6
	colReviewedWidth = 9
	colDateWidth     = 11
	minContentWidth  = 10
	headerLines      = 1
	footerLines      = 3
)

// Model implements the Bubble Tea dataset browser.
type Model struct {
	name        string
	dataset     *model.Dataset
	order       []*model.QuestionRecord
	sortByWrong bool
	table       table.Model

	width  int
	height int
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a browser over ds. name labels the header.
func NewModel(name string, ds *model.Dataset) *Model {
	m := &Model{
		name:    name,
		dataset: ds,
	}
	m.table = table.New(
		table.WithColumns(m.columns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(tableStyles())
	m.applyOrder()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "w":
			m.sortByWrong = !m.sortByWrong
			m.applyOrder()
			return m, nil
		case "g", "home":
			m.table.GotoTop()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	parts := []string{m.renderHeader(), m.table.View(), m.renderFooter()}
	return strings.Join(parts, "\n")
}

// Selected returns the record under the cursor.
func (m *Model) Selected() (*model.QuestionRecord, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.order) {
		return nil, false
	}
	return m.order[idx], true
}

func (m *Model) applyOrder() {
	m.order = append([]*model.QuestionRecord(nil), m.dataset.Records...)
	if m.sortByWrong {
		sort.SliceStable(m.order, func(i, j int) bool {
			return m.order[i].WrongCount > m.order[j].WrongCount
		})
	}
	m.table.SetRows(m.rows())
	m.table.SetCursor(0)
}

func (m *Model) updateLayout() {
	m.table.SetColumns(m.columns(m.width))
	m.table.SetRows(m.rows())
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, m.height-headerLines-footerLines))
}

func (m *Model) contentWidth(total int) int {
	fixed := colNumberWidth + colWrongWidth + colReviewedWidth + colDateWidth + 5
	return maxInt(minContentWidth, total-fixed)
}

func (m *Model) columns(total int) []table.Column {
	if total <= 0 {
		total = 80
	}
	return []table.Column{
		{Title: "No.", Width: colNumberWidth},
		{Title: "Wrong", Width: colWrongWidth},
		{Title: "Reviewed", Width: colReviewedWidth},
		{Title: "Last Wrong", Width: colDateWidth},
		{Title: "Content", Width: m.contentWidth(total)},
	}
}

func (m *Model) rows() []table.Row {
	total := m.width
	if total <= 0 {
		total = 80
	}
	contentWidth := m.contentWidth(total)
	rows := make([]table.Row, 0, len(m.order))
	for _, rec := range m.order {
		date, _, _ := rec.LastWrong()
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", rec.DisplayIndex),
			fmt.Sprintf("%d", rec.WrongCount),
			fmt.Sprintf("%d", rec.ReviewedCount),
			date,
			runewidth.Truncate(rec.Content, contentWidth, "..."),
		})
	}
	return rows
}

func (m *Model) renderHeader() string {
	sortLabel := "dataset order"
	if m.sortByWrong {
		sortLabel = "most wrong"
	}
	line := fmt.Sprintf("%s  %d questions  sort: %s  (w: toggle sort, q: quit)", m.name, m.dataset.Len(), sortLabel)
	if m.width > 0 {
		line = runewidth.Truncate(line, m.width, "...")
	}
	return headerStyle.Render(line)
}

func (m *Model) renderFooter() string {
	rec, ok := m.Selected()
	if !ok {
		return footerStyle.Render("No questions.")
	}
	summary := fmt.Sprintf("No. %d  reviewed %d  wrong %d  %s", rec.DisplayIndex, rec.ReviewedCount, rec.WrongCount, rec.Fingerprint)
	date, answer, ok := rec.LastWrong()
	if !ok {
		return footerStyle.Render(summary) + "\n" + footerStyle.Render("Never answered wrong.")
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	prefix := fmt.Sprintf("Last wrong %s: ", date)
	tokens := buildStyledWords(rec.Content, answer)
	body := wrapStyledTokens(tokens, maxInt(1, width-runewidth.StringWidth(prefix)))
	return footerStyle.Render(summary) + "\n" + footerStyle.Render(prefix) + body
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
