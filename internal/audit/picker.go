package audit

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/acadjobs/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// AllCategories is the picker entry that selects every posting.
const AllCategories = ""

type pickerModel struct {
	groups []model.GroupCount
	cursor int
	chosen int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.groups)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Posting Audit: select a category")
	s += "\n"

	for i, g := range m.groups {
		name := g.Key
		if name == AllCategories {
			name = "All categories"
		}
		label := fmt.Sprintf("%s (%d)", name, g.Count)
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// pickerEntries puts an "all categories" entry with the total in front of
// the per-category counts.
func pickerEntries(groups []model.GroupCount) []model.GroupCount {
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	return append([]model.GroupCount{{Key: AllCategories, Count: total}}, groups...)
}

// RunCategoryPicker shows an interactive category selector built from
// per-category counts. It returns the chosen category (AllCategories for
// every posting) and ok=false if the user quit.
func RunCategoryPicker(groups []model.GroupCount) (string, bool, error) {
	m := pickerModel{
		groups: pickerEntries(groups),
		chosen: -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return "", false, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return "", false, nil
	}
	return final.groups[final.chosen].Key, true, nil
}
