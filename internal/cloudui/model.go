// Package cloudui provides the Bubble Tea week browser.
package cloudui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/weekcloud/internal/engagement"
	"github.com/verte-zerg/weekcloud/internal/pipeline"
	"github.com/verte-zerg/weekcloud/internal/render"
	"github.com/verte-zerg/weekcloud/internal/stats"
	"github.com/verte-zerg/weekcloud/internal/week"
)

const (
	tabCloud = iota
	tabTerms
	tabEngagement
)

const dateLayout = "2006-01-02"

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	positiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CD964"))
	negativeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3B30"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Options configures the browser.
type Options struct {
	// Background is the cloud background, used to separate ink from paper in
	// the terminal preview.
	Background color.RGBA
	// Start is the initially selected date; zero selects the first review.
	Start time.Time
	Frame engagement.Frame
}

type resultMsg struct {
	seq int
	res pipeline.Result
	err error
}

// Model implements the Bubble Tea week browser.
type Model struct {
	ctx      context.Context
	runner   *pipeline.Runner
	ds       *pipeline.Dataset
	bucketer week.Bucketer
	opts     Options

	first   time.Time
	last    time.Time
	hasData bool

	date    time.Time
	seq     int
	loading bool
	result  *pipeline.Result
	errMsg  string

	frame   engagement.Frame
	summary engagement.Summary

	tabs      []string
	activeTab int
	viewports []viewport.Model
	termTable table.Model
	spinner   spinner.Model

	width  int
	height int

	dateMode  bool
	dateInput textinput.Model
	dateError string
}

// NewModel constructs the browser over an immutable dataset.
func NewModel(ctx context.Context, runner *pipeline.Runner, ds *pipeline.Dataset, opts Options) *Model {
	if opts.Frame == "" {
		opts.Frame = engagement.FrameAll
	}
	m := &Model{
		ctx:      ctx,
		runner:   runner,
		ds:       ds,
		bucketer: runner.Pipeline().Bucketer(),
		opts:     opts,
		frame:    opts.Frame,
		tabs:     []string{"Cloud", "Terms", "Engagement"},
	}
	m.first, m.last, m.hasData = ds.Span()
	m.date = m.first
	if !opts.Start.IsZero() {
		m.date = m.clampDate(opts.Start)
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.initDateInput()
	m.termTable = buildTermTable(nil, 0, 1)
	m.initViewports()
	m.summary = stats.BuildDashboard(ds, m.frame)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if !m.hasData {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.requestRun())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case resultMsg:
		return m.handleResult(msg)
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.dateMode && msg.String() == "q") {
			m.runner.Cancel()
			return m, tea.Quit
		}
		if m.activeTab == tabTerms {
			m.termTable.Focus()
		} else {
			m.termTable.Blur()
		}
		if m.dateMode {
			return m.updateDateInput(msg)
		}
		switch msg.String() {
		case "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "left", "h":
			return m, m.moveWeek(-1)
		case "right", "l":
			return m, m.moveWeek(1)
		case "t":
			m.frame = m.frame.Next()
			m.summary = stats.BuildDashboard(m.ds, m.frame)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startDateInput()
		case "g", "home":
			if m.activeTab == tabTerms {
				m.termTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTerms {
				m.termTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabTerms {
				var cmd tea.Cmd
				m.termTable, cmd = m.termTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.dateMode {
		return fitLines(m.renderDateModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// requestRun starts a pipeline run for the selected date. Earlier runs are
// superseded by the runner, and their messages are dropped by seq.
func (m *Model) requestRun() tea.Cmd {
	m.seq++
	m.loading = true
	seq, date := m.seq, m.date
	ctx, runner, ds := m.ctx, m.runner, m.ds
	return func() tea.Msg {
		res, err := runner.Run(ctx, ds, date)
		return resultMsg{seq: seq, res: res, err: err}
	}
}

func (m *Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.seq || errors.Is(msg.err, pipeline.ErrSuperseded) {
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		m.renderTabContents()
		return m, nil
	}
	m.errMsg = ""
	res := msg.res
	m.result = &res
	m.applyTermTable()
	m.renderTabContents()
	return m, nil
}

func (m *Model) moveWeek(delta int) tea.Cmd {
	if !m.hasData {
		return nil
	}
	next := m.clampDate(m.date.AddDate(0, 0, 7*delta))
	if m.bucketer.WindowFor(next).Key() == m.bucketer.WindowFor(m.date).Key() {
		return nil
	}
	m.date = next
	return m.requestRun()
}

// clampDate keeps selections inside the dataset span, like a date slider.
func (m *Model) clampDate(t time.Time) time.Time {
	if !m.hasData {
		return t
	}
	if t.Before(m.first) {
		return m.first
	}
	if t.After(m.last) {
		return m.last
	}
	return t
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initDateInput() {
	input := textinput.New()
	input.Prompt = "Date (YYYY-MM-DD): "
	input.CharLimit = len(dateLayout)
	input.Placeholder = dateLayout
	input.Cursor.SetMode(cursor.CursorBlink)
	m.dateInput = input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.termTable.SetWidth(m.width)
	m.termTable.SetHeight(maxInt(1, vpHeight-1))
	promptWidth := lipgloss.Width(m.dateInput.Prompt)
	m.dateInput.Width = maxInt(10, modalInnerWidth(m.width)-promptWidth)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabTerms {
		m.termTable.Focus()
	} else {
		m.termTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLines(m.renderSelection(), m.width)
}

func (m *Model) renderSelection() string {
	if !m.hasData {
		return headerStyle.Render("No reviews imported.")
	}
	w := m.bucketer.WindowFor(m.date)
	summary := fmt.Sprintf("Week %s (%s)  date=%s  range=%s..%s  frame=%s",
		w.Key(), w, m.date.Format(dateLayout), m.first.Format(dateLayout), m.last.Format(dateLayout), m.frame.Label())
	if m.loading {
		summary = m.spinner.View() + " " + summary
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Week: left/right  Date: /  Tabs: tab  Frame: t  Scroll: up/down  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.activeTab == tabTerms {
		if m.result == nil || m.result.Table.Len() == 0 {
			return fitLines("No terms for the selected week.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.termTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewports[tabCloud].SetContent(m.renderCloud(width, bodyHeight))
	m.viewports[tabEngagement].SetContent(renderEngagement(m.summary, width))
}

func (m *Model) renderCloud(width, height int) string {
	if !m.hasData {
		return "No reviews imported. Run `weekcloud import reviews <file.csv>`."
	}
	if m.result == nil {
		return "Building cloud..."
	}
	res := m.result
	var cards []string
	if res.Stats.Count == 0 {
		cards = []string{metricCard("Reviews", "0")}
	} else {
		cards = []string{
			metricCard("Reviews", fmt.Sprintf("%d", res.Stats.Count)),
			metricCard("Avg Rating", fmt.Sprintf("%.2f", res.Stats.MeanScore)),
			metricCard("Terms", fmt.Sprintf("%d", res.Table.Len())),
			metricCard("Placed", fmt.Sprintf("%d", len(res.Placements))),
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if res.Stats.Count == 0 {
		return header + "\n" + "No reviews for the selected week."
	}
	rows := height - lipgloss.Height(header) - 1
	if res.Image == nil || rows < 2 {
		return header
	}
	canvas := res.Image.Bounds()
	cols := maxInt(1, width)
	if want := (cols*2*canvas.Dy()/canvas.Dx() + 3) / 4; want < rows {
		rows = want
	} else {
		cols = maxInt(1, rows*4*canvas.Dx()/canvas.Dy()/2)
	}
	preview := render.PreviewLines(res.Image, cols, rows, m.opts.Background, true)
	return header + "\n" + strings.Join(preview, "\n")
}

func renderEngagement(s engagement.Summary, width int) string {
	if s.Totals.Posts == 0 {
		return "No posts imported. Run `weekcloud import posts <file.csv>`."
	}
	values := stats.CardValues(s)
	cards := make([]string, 0, len(values))
	for i, v := range values {
		cards = append(cards, changeCard(stats.CardTitles[i], v[0], v[1]))
	}
	var header string
	if width < 80 {
		header = strings.Join(cards, "\n")
	} else {
		header = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	chartWidth := minInt(maxInt(10, width-4), 60)
	lines := stats.DashboardLines(s, chartWidth, true)
	// Title, blank, three card rows and a blank: the cards replace them.
	body := lines
	if len(lines) > 6 {
		body = lines[6:]
	}
	return strings.TrimRight(lines[0]+"\n"+header+"\n\n"+strings.Join(body, "\n"), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func changeCard(label, value, change string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	if change != "" {
		style := positiveStyle
		if strings.HasPrefix(change, "-") {
			style = negativeStyle
		}
		content += "\n" + style.Render(change)
	}
	return cardStyle.Render(content)
}

func (m *Model) applyTermTable() {
	_, bodyHeight, _ := m.layoutHeights()
	var entries [][]string
	if m.result != nil {
		placed := make(map[string]int, len(m.result.Placements))
		for _, p := range m.result.Placements {
			placed[p.Term] = p.FontSize
		}
		for _, e := range m.result.Table.Entries() {
			size := "-"
			if s, ok := placed[e.Term]; ok {
				size = fmt.Sprintf("%d", s)
			}
			entries = append(entries, []string{e.Term, fmt.Sprintf("%d", e.Count), size})
		}
	}
	m.termTable = buildTermTable(entries, m.width, bodyHeight)
}

func buildTermTable(entries [][]string, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Term", Width: 24},
		{Title: "Count", Width: 7},
		{Title: "Font", Width: 5},
	}
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{truncateLine(e[0], 24), e[1], e[2]})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(termTableStyles())
	return t
}

func termTableStyles() table.Styles {
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

func (m *Model) startDateInput() (tea.Model, tea.Cmd) {
	m.dateMode = true
	m.dateError = ""
	m.dateInput.SetValue(m.date.Format(dateLayout))
	return m, m.dateInput.Focus()
}

func (m *Model) updateDateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.dateMode = false
		m.dateError = ""
		return m, nil
	case tea.KeyEnter:
		parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(m.dateInput.Value()), m.first.Location())
		if err != nil {
			m.dateError = "invalid date (expected YYYY-MM-DD)"
			return m, nil
		}
		m.dateMode = false
		m.dateError = ""
		m.date = m.clampDate(parsed)
		if !m.hasData {
			return m, nil
		}
		return m, m.requestRun()
	}
	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func (m *Model) renderDateModal() string {
	body := []string{
		cardValueStyle.Render("Select Date"),
		m.dateInput.View(),
	}
	if m.hasData {
		body = append(body, headerStyle.Render(fmt.Sprintf("Reviews from %s to %s.", m.first.Format(dateLayout), m.last.Format(dateLayout))))
	}
	body = append(body, headerStyle.Render("Enter to apply / Esc to cancel"))
	if m.dateError != "" {
		body = append(body, errorStyle.Render(m.dateError))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
