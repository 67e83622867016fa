package tui

import (
	"context"
	"errors"
	"fmt"

	"signal-deck/internal/query"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabFeed Tab = iota
	TabDashboard
	TabTrends
	TabInfluencers
	TabChat
)

var tabNames = []string{"1:Feed", "2:Dashboard", "3:Trends", "4:Influencers", "5:Chat"}

var errFeedUnavailable = errors.New("advice feed not configured")

// Feed message types.
type adviceStateMsg query.State
type feedClosedMsg struct{}
type refetchResultMsg struct {
	state query.State
	err   error
}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
type AppModel struct {
	services    Services
	sub         *query.Subscription
	state       query.State
	refetching  bool
	activeTab   Tab
	feed        FeedModel
	dashboard   DashboardModel
	trends      TrendsModel
	influencers InfluencersModel
	chat        ChatModel
	width       int
	height      int
	quitting    bool
}

// NewAppModel creates the root application model and subscribes to the
// advice feed. Call Close when the program exits.
func NewAppModel(svc Services) AppModel {
	m := AppModel{
		services:    svc,
		activeTab:   TabFeed,
		state:       query.State{Status: query.StatusIdle},
		feed:        NewFeedModel(),
		dashboard:   NewDashboardModel(),
		trends:      NewTrendsModel(svc),
		influencers: NewInfluencersModel(svc),
		chat:        NewChatModel(svc),
	}
	if svc.Feed != nil {
		m.sub = svc.Feed.Subscribe()
	} else {
		m.state = query.State{Status: query.StatusError, Err: errFeedUnavailable}
	}
	m.applyState(m.state)
	return m
}

// Init initializes all child models.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.waitForStateCmd(),
		m.trends.Init(),
		m.influencers.Init(),
		m.chat.Init(),
	)
}

// Close releases the feed subscription.
func (m AppModel) Close() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case adviceStateMsg:
		m.applyState(query.State(msg))
		return m, m.waitForStateCmd()

	case feedClosedMsg:
		return m, nil

	case refetchResultMsg:
		m.refetching = false
		m.applyState(msg.state)
		return m, nil

	case tea.KeyMsg:
		// Global key bindings (except in chat when input is focused)
		if m.activeTab != TabChat || msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab ||
			msg.String() == "ctrl+c" {

			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				m.quitting = true
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Tab):
				m.switchTab(Tab((int(m.activeTab) + 1) % len(tabNames)))
				return m, nil

			case key.Matches(msg, DefaultKeyMap.ShiftTab):
				next := int(m.activeTab) - 1
				if next < 0 {
					next = len(tabNames) - 1
				}
				m.switchTab(Tab(next))
				return m, nil

			case key.Matches(msg, DefaultKeyMap.Refresh):
				if m.refetching || m.services.Feed == nil {
					return m, nil
				}
				m.refetching = true
				return m, m.refetchCmd()

			case len(msg.String()) == 1 && msg.String() >= "1" && msg.String() <= "5":
				m.switchTab(Tab(msg.String()[0] - '1'))
				return m, nil
			}
		}
	}

	var cmds []tea.Cmd

	switch msg.(type) {
	case sentimentMsg:
		var cmd tea.Cmd
		m.trends, cmd = m.trends.Update(msg)
		cmds = append(cmds, cmd)

	case stanceMsg:
		var cmd tea.Cmd
		m.influencers, cmd = m.influencers.Update(msg)
		cmds = append(cmds, cmd)

	case advisorReplyMsg, advisorErrMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)

	default:
		// Route keyboard and other messages to active tab only
		switch m.activeTab {
		case TabFeed:
			var cmd tea.Cmd
			m.feed, cmd = m.feed.Update(msg)
			cmds = append(cmds, cmd)
		case TabDashboard:
			var cmd tea.Cmd
			m.dashboard, cmd = m.dashboard.Update(msg)
			cmds = append(cmds, cmd)
		case TabTrends:
			var cmd tea.Cmd
			m.trends, cmd = m.trends.Update(msg)
			cmds = append(cmds, cmd)
		case TabInfluencers:
			var cmd tea.Cmd
			m.influencers, cmd = m.influencers.Update(msg)
			cmds = append(cmds, cmd)
		case TabChat:
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the tab bar, feed status and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	sections := []string{m.renderTabBar(), m.renderStatusLine()}
	if banner := m.renderErrorBanner(); banner != "" {
		sections = append(sections, banner)
	}

	switch m.activeTab {
	case TabFeed:
		sections = append(sections, m.feed.View())
	case TabDashboard:
		sections = append(sections, m.dashboard.View())
	case TabTrends:
		sections = append(sections, m.trends.View())
	case TabInfluencers:
		sections = append(sections, m.influencers.View())
	case TabChat:
		sections = append(sections, m.chat.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

// State returns the last feed state seen by the UI (for testing).
func (m AppModel) State() query.State { return m.state }

func (m *AppModel) applyState(st query.State) {
	m.state = st
	m.feed.SetState(st)
	m.dashboard.SetState(st)
}

func (m *AppModel) switchTab(tab Tab) {
	if tab == TabChat && m.activeTab != TabChat {
		m.chat.Focus()
	} else if m.activeTab == TabChat && tab != TabChat {
		m.chat.Blur()
	}
	m.activeTab = tab
}

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 3 // tab bar, status line, banner
	m.feed.SetSize(m.width, contentHeight)
	m.dashboard.SetSize(m.width, contentHeight)
	m.trends.SetSize(m.width, contentHeight)
	m.influencers.SetSize(m.width, contentHeight)
	m.chat.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m AppModel) renderStatusLine() string {
	status := string(m.state.Status)
	if m.state.IsLoading || m.refetching {
		status = "refreshing…"
	}
	line := fmt.Sprintf("  feed: %s", status)
	if !m.state.UpdatedAt.IsZero() {
		line += "  updated " + m.state.UpdatedAt.Local().Format("15:04:05")
	}
	return SubtextStyle.Render(line + "  (R to refetch)")
}

func (m AppModel) renderErrorBanner() string {
	if m.state.Err == nil {
		return ""
	}
	text := "Error: " + m.state.Err.Error()
	if len(m.state.Data) > 0 {
		text += " (showing last known data)"
	}
	return BannerStyle.Render(text)
}

func (m AppModel) waitForStateCmd() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	updates := m.sub.Updates()
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return feedClosedMsg{}
		}
		return adviceStateMsg(st)
	}
}

func (m AppModel) refetchCmd() tea.Cmd {
	feed := m.services.Feed
	return func() tea.Msg {
		st, err := feed.Refetch(context.Background())
		return refetchResultMsg{state: st, err: err}
	}
}
