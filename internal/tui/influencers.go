package tui

import (
	"fmt"
	"strings"
	"time"

	"signal-deck/internal/demo"
	"signal-deck/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const stanceDays = 14

type stanceMsg struct {
	id      string
	history []domain.StanceEntry
}

// InfluencersModel lists tracked accounts and the stance history of the selected one.
type InfluencersModel struct {
	services    Services
	influencers []domain.Influencer
	cursor      int
	history     []domain.StanceEntry
	width       int
	height      int
}

func NewInfluencersModel(svc Services) InfluencersModel {
	return InfluencersModel{
		services:    svc,
		influencers: demo.Influencers(time.Now()),
	}
}

func (m InfluencersModel) Init() tea.Cmd {
	return m.loadStanceCmd()
}

func (m InfluencersModel) Update(msg tea.Msg) (InfluencersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case stanceMsg:
		if sel, ok := m.Selected(); ok && sel.ID == msg.id {
			m.history = msg.history
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.influencers)-1 {
				m.cursor++
				m.history = nil
				return m, m.loadStanceCmd()
			}
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
				m.history = nil
				return m, m.loadStanceCmd()
			}
		}
	}
	return m, nil
}

func (m InfluencersModel) View() string {
	var rows []string
	rows = append(rows, HeaderStyle.Render("  Influencers"))
	for i, inf := range m.influencers {
		verified := " "
		if inf.Verified {
			verified = "✓"
		}
		row := fmt.Sprintf("  %-20s %s %7s  %s", truncate(inf.Name, 20), verified, demo.FormatFollowers(inf.Followers), stanceLabel(inf.RecentStance))
		if i == m.cursor {
			row = SelectedStyle.Render(row)
		}
		rows = append(rows, row)
	}

	listWidth := max(m.width/2-2, 40)
	list := BorderStyle.Width(listWidth).Render(strings.Join(rows, "\n"))
	detail := BorderStyle.Width(max(m.width-listWidth-4, 30)).Render(m.renderHistory())
	return lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
}

// Selected returns the influencer under the cursor.
func (m InfluencersModel) Selected() (domain.Influencer, bool) {
	if m.cursor >= len(m.influencers) {
		return domain.Influencer{}, false
	}
	return m.influencers[m.cursor], true
}

func (m *InfluencersModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m InfluencersModel) renderHistory() string {
	sel, ok := m.Selected()
	if !ok {
		return ""
	}
	lines := []string{
		HeaderStyle.Render(fmt.Sprintf("  %s (%s)", sel.Handle, sel.Platform)),
		SubtextStyle.Render(fmt.Sprintf("  influence %d", sel.InfluenceScore)),
	}
	if m.services.Demo == nil {
		return strings.Join(append(lines, SubtextStyle.Render("  Stance history not available.")), "\n")
	}
	if len(m.history) == 0 {
		return strings.Join(append(lines, SubtextStyle.Render("  Loading...")), "\n")
	}
	for _, e := range m.history {
		line := fmt.Sprintf("  %s  %s %3.0f%%", e.Time.Local().Format("01-02"), stanceLabel(e.Stance), e.Confidence)
		if e.Event != "" {
			line += SubtextStyle.Render("  " + e.Event)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func stanceLabel(s domain.Stance) string {
	switch s {
	case domain.StanceBullish:
		return ActionBuyStyle.Render("bullish")
	case domain.StanceBearish:
		return ActionSellStyle.Render("bearish")
	}
	return ActionHoldStyle.Render("neutral")
}

func (m InfluencersModel) loadStanceCmd() tea.Cmd {
	gen := m.services.Demo
	sel, ok := m.Selected()
	if gen == nil || !ok {
		return nil
	}
	return func() tea.Msg {
		return stanceMsg{id: sel.ID, history: gen.StanceHistory(sel.ID, stanceDays)}
	}
}
