package audit

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/acadjobs/internal/model"
)

// Lines per posting in the list view (title + subtitle + blank separator).
const postingItemHeight = 3

// previewTimeout bounds an on-demand summary; the summarizer falls back to
// the extractive summary well before it.
const previewTimeout = 45 * time.Second

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	postingTitleStyle = lipgloss.NewStyle().
			Bold(true)

	postingSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedPostingTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedPostingSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Italic(true)

	descBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))
)

// previewMsg is sent when an on-demand summary preview completes.
type previewMsg struct {
	postingID string
	text      string
}

// PostingMatcher decides whether a stored posting passes the configured filters.
type PostingMatcher interface {
	MatchPosting(p model.Posting) bool
}

type auditModel struct {
	category      string
	allPostings   []model.Posting
	matched       []model.Posting
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view            viewState
	detail          model.Posting
	detailViewport  viewport.Model
	showDescription bool

	// Summary preview state; previews are never written back to storage.
	summarizer     model.Summarizer
	previews       map[string]string
	previewLoading bool

	wantQuit bool
}

func newAuditModel(category string, postings []model.Posting, matcher PostingMatcher, summarizer model.Summarizer) auditModel {
	sortPostingsByDate(postings)
	var matched []model.Posting
	for _, p := range postings {
		if matcher == nil || matcher.MatchPosting(p) {
			matched = append(matched, p)
		}
	}
	return auditModel{
		category:    category,
		allPostings: postings,
		matched:     matched,
		summarizer:  summarizer,
		previews:    make(map[string]string),
	}
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case previewMsg:
		m.previewLoading = false
		m.previews[msg.postingID] = msg.text
		if m.view == viewDetail {
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detail.URL)
		return m, nil
	case "r":
		if m.detail.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	case "s":
		if m.canPreview() {
			m.previewLoading = true
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.previewCmd(m.detail)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

// canPreview reports whether 's' should generate a summary for the open posting.
func (m auditModel) canPreview() bool {
	if m.summarizer == nil || m.previewLoading || m.detail.Enriched() {
		return false
	}
	_, done := m.previews[m.detail.ID]
	return !done
}

func (m auditModel) previewCmd(p model.Posting) tea.Cmd {
	summarizer := m.summarizer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), previewTimeout)
		defer cancel()
		return previewMsg{postingID: p.ID, text: summarizer.Summarize(ctx, p.Title, p.Description, p.Organization)}
	}
}

func (m *auditModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allPostings)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.matched)-1, 0))
	}
}

func (m *auditModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * postingItemHeight
	cursorBottom := cursorTop + postingItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m auditModel) openDetailView() (tea.Model, tea.Cmd) {
	postings := m.activePostings()
	if len(postings) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detail = postings[m.activeCursor()]
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	m.leftViewport.SetContent(renderPostings(m.allPostings, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderPostings(m.matched, m.rightCursor, m.activePane == 1))
}

func (m auditModel) activePostings() []model.Posting {
	if m.activePane == 0 {
		return m.allPostings
	}
	return m.matched
}

func (m auditModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.leftViewport.Width

	name := m.category
	if name == AllCategories {
		name = "All"
	}
	leftHeader := fmt.Sprintf(" %s Postings (%d)", name, len(m.allPostings))
	rightHeader := fmt.Sprintf(" Matching Filters (%d)", len(m.matched))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	enriched := 0
	for _, p := range m.allPostings {
		if p.Enriched() {
			enriched++
		}
	}
	statusText := fmt.Sprintf(" %d total | %d matched | %d awaiting enrichment    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.allPostings), len(m.matched), len(m.allPostings)-enriched)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Posting Details")
	if m.previewLoading {
		title += "  (summarizing...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	keys := []string{"o open URL"}
	if m.detail.Description != "" {
		keys = append(keys, "r desc")
	}
	if m.canPreview() {
		keys = append(keys, "s summary")
	}
	keys = append(keys, "esc/backspace back", "↑/↓ scroll", "q quit")
	statusBar := statusBarStyle.Width(m.width).Render(" " + strings.Join(keys, "  "))

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	p := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("University", p.Organization)
	addField("Location", p.Location)
	addField("Category", string(p.Category))
	addField("Posting ID", p.ID)

	b.WriteByte('\n')

	if p.Deadline != nil {
		addField("Deadline", p.Deadline.Format("2 January 2006"))
	}
	addField("Added", p.CreatedAt.Local().Format("2006-01-02 15:04 MST"))
	if !p.Active {
		addField("Status", "inactive")
	}

	b.WriteByte('\n')
	addField("URL", p.URL)

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return descDividerStyle.Render(label + fill)
	}

	preview, hasPreview := m.previews[p.ID]
	switch {
	case p.Enriched():
		b.WriteByte('\n')
		b.WriteString(divider("── Summary ") + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(*p.Summary, wrapWidth)) + "\n")
	case hasPreview:
		b.WriteByte('\n')
		b.WriteString(divider("── Summary Preview ") + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(preview, wrapWidth)) + "\n")
	case m.previewLoading:
		b.WriteByte('\n')
		b.WriteString(descHintStyle.Render("  summarizing posting...") + "\n")
	case m.summarizer != nil:
		b.WriteByte('\n')
		b.WriteString(descHintStyle.Render("  not enriched yet, press s for a summary preview") + "\n")
	}

	if p.Description != "" {
		b.WriteByte('\n')
		if m.showDescription {
			b.WriteString(divider("── Description ") + "\n\n")
			b.WriteString(descBodyStyle.Render(wordWrap(p.Description, wrapWidth)) + "\n")
		} else {
			b.WriteString(descHintStyle.Render("  press r to read the full description") + "\n")
		}
	}

	return b.String()
}

func renderPostings(postings []model.Posting, cursor int, isActive bool) string {
	if len(postings) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, p := range postings {
		isSelected := isActive && i == cursor

		titleSt := postingTitleStyle
		subtitleSt := postingSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedPostingTitleStyle
			subtitleSt = selectedPostingSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(p.Title))
		b.WriteByte('\n')

		deadline := "no deadline"
		if p.Deadline != nil {
			deadline = "closes " + p.Deadline.Format("2006-01-02")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", p.Organization, p.Location, deadline)))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sortPostingsByDate orders postings newest first.
func sortPostingsByDate(postings []model.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].CreatedAt.After(postings[j].CreatedAt)
	})
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunAuditTUI launches the interactive split-pane audit over stored postings.
// The right pane holds the postings matcher accepts; matcher may be nil.
// summarizer may be nil; when non-nil the 's' key previews a summary for
// postings that have not been enriched yet.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunAuditTUI(category string, postings []model.Posting, matcher PostingMatcher, summarizer model.Summarizer) (bool, error) {
	m := newAuditModel(category, postings, matcher, summarizer)

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
