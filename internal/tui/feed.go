package tui

import (
	"fmt"
	"strings"

	"signal-deck/internal/domain"
	"signal-deck/internal/query"
	"signal-deck/internal/risk"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// FeedModel lists the latest advices with a detail panel for the selected row.
type FeedModel struct {
	state  query.State
	cursor int
	width  int
	height int
}

func NewFeedModel() FeedModel {
	return FeedModel{}
}

// SetState replaces the advice data, keeping the cursor on the same symbol when possible.
func (m *FeedModel) SetState(st query.State) {
	var selected string
	if m.cursor < len(m.state.Data) {
		selected = m.state.Data[m.cursor].Symbol
	}
	m.state = st
	m.cursor = 0
	for i, a := range st.Data {
		if a.Symbol == selected {
			m.cursor = i
			break
		}
	}
}

func (m FeedModel) Update(msg tea.Msg) (FeedModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.state.Data)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		}
	}
	return m, nil
}

func (m FeedModel) View() string {
	if len(m.state.Data) == 0 {
		switch {
		case m.state.Status == query.StatusIdle || m.state.IsLoading:
			return SubtextStyle.Render("  Loading advices...")
		case m.state.Err != nil:
			return ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.state.Err))
		}
		return SubtextStyle.Render("  No advices available")
	}

	var lines []string
	lines = append(lines, HeaderStyle.Render("  Latest Advices"))
	lines = append(lines, SubtextStyle.Render("  Symbol Name                  Price  24h      Action Str  Snt"))
	lines = append(lines, SubtextStyle.Render("  "+strings.Repeat("─", 64)))
	for i, a := range m.state.Data {
		row := "  " + FormatAdvice(a)
		if i == m.cursor {
			row = SelectedStyle.Render(row)
		}
		lines = append(lines, row)
	}

	table := BorderStyle.Width(max(m.width-2, 40)).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, table, m.renderDetail())
}

// Selected returns the advice under the cursor (for testing).
func (m FeedModel) Selected() (domain.ViewAdvice, bool) {
	if m.cursor >= len(m.state.Data) {
		return domain.ViewAdvice{}, false
	}
	return m.state.Data[m.cursor], true
}

func (m *FeedModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m FeedModel) renderDetail() string {
	a, ok := m.Selected()
	if !ok {
		return ""
	}

	lines := []string{
		HeaderStyle.Render(fmt.Sprintf("  %s · %s", a.Symbol, a.Name)),
		fmt.Sprintf("  %s %s  sentiment %d  predicted %s",
			actionStyle(a.Action).Render(strings.ToUpper(string(a.Action))),
			strengthDots(a.Strength),
			a.Sentiment,
			a.PredictedTime().Local().Format("2006-01-02 15:04"),
		),
		fmt.Sprintf("  Volume %s  Market cap %s", a.Volume, a.MarketCap),
		"",
	}
	for _, line := range strings.Split(a.Reason, "\n") {
		lines = append(lines, "  "+line)
	}

	if plan, err := risk.DefaultPlan(decimal.NewFromFloat(a.Price)); err == nil {
		lines = append(lines, "",
			SubtextStyle.Render(fmt.Sprintf("  Take profit %s (+%s%%)  Stop loss %s (-%s%%)",
				plan.TakeProfitPrice.StringFixed(2), plan.TakeProfitPct,
				plan.StopLossPrice.StringFixed(2), plan.StopLossPct,
			)),
		)
	}

	return BorderStyle.Width(max(m.width-2, 40)).Render(strings.Join(lines, "\n"))
}
