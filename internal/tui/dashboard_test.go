package tui

import (
	"errors"
	"strings"
	"testing"

	"signal-deck/internal/query"
)

func TestDashboardSetState(t *testing.T) {
	m := NewDashboardModel()
	m.SetSize(120, 40)
	m.SetState(query.State{Status: query.StatusSuccess, Data: sampleAdvices()})

	stats := m.Stats()
	if stats.Buy != 1 || stats.Hold != 1 || stats.Sell != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !strings.Contains(m.View(), "Market Overview") {
		t.Fatal("expected summary section")
	}
}

func TestDashboardViewLoading(t *testing.T) {
	m := NewDashboardModel()
	m.SetSize(120, 40)
	if !strings.Contains(m.View(), "Loading") {
		t.Fatal("expected loading placeholder")
	}
}

func TestDashboardViewErrorWithoutData(t *testing.T) {
	m := NewDashboardModel()
	m.SetSize(120, 40)
	m.SetState(query.State{Status: query.StatusError, Err: errors.New("HTTP 500")})
	if !strings.Contains(m.View(), "HTTP 500") {
		t.Fatal("expected error in view")
	}
}
