package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/acadjobs/internal/model"
)

// loadTimeout bounds one store query behind the spinner.
const loadTimeout = time.Minute

// ErrLoadCancelled is returned by RunLoader when the user presses ctrl+c.
var ErrLoadCancelled = errors.New("loading cancelled")

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type loadDoneMsg struct {
	postings []model.Posting
	err      error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	label   string
	loadFn  func(ctx context.Context) ([]model.Posting, error)
	frame   int
	started time.Time
	result  []model.Posting
	err     error
	done    bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doLoad(), m.tick())
}

func (m loaderModel) doLoad() tea.Cmd {
	loadFn := m.loadFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		postings, err := loadFn(ctx)
		return loadDoneMsg{postings: postings, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		m.result = msg.postings
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = ErrLoadCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	elapsed := time.Since(m.started).Round(100 * time.Millisecond)
	return fmt.Sprintf("%s Loading %s postings... %s\n", spinner, m.label, elapsed)
}

// RunLoader shows a spinner while loadFn queries the store. It renders
// inline (no alt screen).
func RunLoader(label string, loadFn func(ctx context.Context) ([]model.Posting, error)) ([]model.Posting, error) {
	m := loaderModel{
		label:   label,
		loadFn:  loadFn,
		started: time.Now(),
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
