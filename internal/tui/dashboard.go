package tui

import (
	"fmt"
	"strings"

	"signal-deck/internal/domain"
	"signal-deck/internal/query"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardModel summarizes the advice feed: action counts, averages and a heat map.
type DashboardModel struct {
	state  query.State
	stats  domain.DashboardStats
	width  int
	height int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel() DashboardModel {
	return DashboardModel{}
}

func (m *DashboardModel) SetState(st query.State) {
	m.state = st
	m.stats = domain.SummarizeAdvices(st.Data)
}

// Update handles incoming messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if len(m.state.Data) == 0 {
		if m.state.Err != nil {
			return ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.state.Err))
		}
		return SubtextStyle.Render("  Loading advices...")
	}

	summaryWidth := max(m.width*2/3-2, 40)
	heatWidth := max(m.width-summaryWidth-4, 15)

	summaryBox := BorderStyle.Width(summaryWidth).Render(m.renderSummary())
	heatBox := BorderStyle.Width(heatWidth).Render(HeaderStyle.Render("  Heat Map") + "\n" + RenderHeatMap(m.state.Data, heatWidth))
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, summaryBox, heatBox)

	sentimentBox := BorderStyle.Width(max(m.width-2, 40)).Render(m.renderSentiment())
	return lipgloss.JoinVertical(lipgloss.Left, topRow, sentimentBox)
}

// SetSize updates the model dimensions.
func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Stats returns the current summary (for testing).
func (m DashboardModel) Stats() domain.DashboardStats { return m.stats }

func (m DashboardModel) renderSummary() string {
	total := len(m.state.Data)
	lines := []string{
		HeaderStyle.Render("  Market Overview"),
		fmt.Sprintf("  %s %d   %s %d   %s %d   of %d",
			ActionBuyStyle.Render("BUY"), m.stats.Buy,
			ActionHoldStyle.Render("HOLD"), m.stats.Hold,
			ActionSellStyle.Render("SELL"), m.stats.Sell,
			total,
		),
		fmt.Sprintf("  Avg 24h change  %s", formatChange(m.stats.AvgChange24h)),
		"  " + RenderSentimentBar("Avg sentiment", m.stats.AvgSentiment, 20),
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderSentiment() string {
	lines := []string{HeaderStyle.Render("  Sentiment by Symbol")}
	for _, a := range m.state.Data {
		lines = append(lines, "  "+RenderSentimentBar(a.Symbol, float64(a.Sentiment), 30))
	}
	return strings.Join(lines, "\n")
}
