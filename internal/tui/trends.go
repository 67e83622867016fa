package tui

import (
	"fmt"
	"strings"

	"signal-deck/internal/demo"
	"signal-deck/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

var trendSymbols = []string{"BTC", "ETH", "SOL", "XRP", "BNB"}

type sentimentMsg struct {
	timeline domain.SentimentTimeline
	coins    []domain.CoinSentiment
}

// TrendsModel shows illustrative sentiment history for one symbol and a
// cross-coin comparison.
type TrendsModel struct {
	services  Services
	symbolIdx int
	timeline  domain.SentimentTimeline
	coins     []domain.CoinSentiment
	width     int
	height    int
}

func NewTrendsModel(svc Services) TrendsModel {
	return TrendsModel{services: svc}
}

func (m TrendsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m TrendsModel) Update(msg tea.Msg) (TrendsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sentimentMsg:
		if msg.timeline.Symbol != m.Symbol() {
			return m, nil
		}
		m.timeline = msg.timeline
		m.coins = msg.coins
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, DefaultKeyMap.CycleSymbol) {
			m.symbolIdx = (m.symbolIdx + 1) % len(trendSymbols)
			return m, m.loadCmd()
		}
	}
	return m, nil
}

func (m TrendsModel) View() string {
	if m.services.Demo == nil {
		return SubtextStyle.Render("  Trend data not available.")
	}
	if len(m.timeline.Points) == 0 {
		return SubtextStyle.Render("  Loading sentiment...")
	}

	sparkWidth := max(m.width-20, 20)
	sentiment := make([]float64, len(m.timeline.Points))
	price := make([]float64, len(m.timeline.Points))
	for i, p := range m.timeline.Points {
		sentiment[i] = p.Sentiment
		price[i] = p.Price
	}
	last := m.timeline.Points[len(m.timeline.Points)-1]

	lines := []string{
		HeaderStyle.Render(fmt.Sprintf("  %s sentiment, last %d days", m.timeline.Symbol, demo.DefaultTimelineDays)) +
			SubtextStyle.Render("  (s: next symbol)"),
		fmt.Sprintf("  Sentiment %s %5.1f", RenderSparkline(sentiment, sparkWidth), last.Sentiment),
		fmt.Sprintf("  Price     %s %s", RenderSparkline(price, sparkWidth), formatUSD(last.Price)),
		"",
		HeaderStyle.Render("  Recent events"),
	}

	events := m.timeline.Events
	if len(events) == 0 {
		lines = append(lines, SubtextStyle.Render("  No notable events"))
	}
	for i := len(events) - 1; i >= 0 && i >= len(events)-5; i-- {
		e := events[i]
		style := PriceZeroStyle
		switch e.Kind {
		case domain.EventPositive:
			style = PriceUpStyle
		case domain.EventNegative:
			style = PriceDownStyle
		}
		lines = append(lines, fmt.Sprintf("  %s  %s", SubtextStyle.Render(e.Time.Local().Format("01-02 15:04")), style.Render(e.Title)))
	}

	lines = append(lines, "", HeaderStyle.Render("  Compare"))
	for _, c := range m.coins {
		arrow := "→"
		switch c.Trend {
		case domain.TrendUp:
			arrow = PriceUpStyle.Render("↑")
		case domain.TrendDown:
			arrow = PriceDownStyle.Render("↓")
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s", RenderSentimentBar(c.Symbol, c.CurrentSentiment, 25), arrow, formatChange(c.Change24h)))
	}

	return BorderStyle.Width(max(m.width-2, 40)).Render(strings.Join(lines, "\n"))
}

// Symbol returns the selected symbol.
func (m TrendsModel) Symbol() string { return trendSymbols[m.symbolIdx] }

func (m *TrendsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m TrendsModel) loadCmd() tea.Cmd {
	gen := m.services.Demo
	if gen == nil {
		return nil
	}
	symbol := m.Symbol()
	return func() tea.Msg {
		return sentimentMsg{
			timeline: gen.SentimentTimeline(symbol, demo.DefaultTimelineDays),
			coins:    gen.MultiCoinSentiment(),
		}
	}
}
