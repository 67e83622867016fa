package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSentimentExamples(t *testing.T) {
	cases := []struct {
		action   AdviceAction
		strength AdviceStrength
		want     int
	}{
		{ActionBuy, StrengthHigh, 85},
		{ActionBuy, StrengthMedium, 75},
		{ActionBuy, StrengthLow, 65},
		{ActionHold, StrengthHigh, 65},
		{ActionHold, StrengthMedium, 55},
		{ActionHold, StrengthLow, 45},
		{ActionSell, StrengthHigh, 45},
		{ActionSell, StrengthMedium, 35},
		{ActionSell, StrengthLow, 25},
	}
	for _, tc := range cases {
		got := Sentiment(tc.action, tc.strength)
		if got != tc.want {
			t.Errorf("Sentiment(%s,%s) = %d, want %d", tc.action, tc.strength, got, tc.want)
		}
		if again := Sentiment(tc.action, tc.strength); again != got {
			t.Errorf("Sentiment(%s,%s) not deterministic: %d then %d", tc.action, tc.strength, got, again)
		}
	}
}

func TestSentimentUnknownValuesStayInRange(t *testing.T) {
	got := Sentiment(AdviceAction("moon"), AdviceStrength("extreme"))
	if got != 50 {
		t.Fatalf("expected neutral 50 for unknown inputs, got %d", got)
	}
}

func TestRawAdviceWireNames(t *testing.T) {
	body := `{"symbol":"BTC","advice_action":"buy","advice_strength":"high","reason":"breakout","predicted_at":1700000000,"kline_24h":[1,2,3]}`
	var raw RawAdvice
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if raw.Action != ActionBuy || raw.Strength != StrengthHigh || raw.PredictedAt != 1700000000 {
		t.Fatalf("unexpected decode: %+v", raw)
	}
	if raw.Price != nil {
		t.Fatalf("expected nil price, got %v", *raw.Price)
	}
	if raw.PredictedTime().Unix() != 1700000000 {
		t.Fatalf("unexpected predicted time: %s", raw.PredictedTime())
	}
}

func TestSummarizeAdvices(t *testing.T) {
	stats := SummarizeAdvices([]ViewAdvice{
		{Symbol: "BTC", Action: ActionBuy, Change24h: 2, Sentiment: 85},
		{Symbol: "ETH", Action: ActionSell, Change24h: -4, Sentiment: 25},
		{Symbol: "SOL", Action: ActionBuy, Change24h: 5, Sentiment: 75},
	})
	if stats.Buy != 2 || stats.Sell != 1 || stats.Hold != 0 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.AvgChange24h != 1 {
		t.Fatalf("expected avg change 1, got %f", stats.AvgChange24h)
	}
	if empty := SummarizeAdvices(nil); empty != (DashboardStats{}) {
		t.Fatalf("expected zero stats, got %+v", empty)
	}
}

func TestFetchErrorMessages(t *testing.T) {
	be := &BackendError{Status: 500, Message: "db down"}
	if !strings.Contains(be.Error(), "db down") {
		t.Fatalf("expected message in backend error, got %q", be.Error())
	}
	if !strings.Contains((&BackendError{Status: 502}).Error(), "Internal Server Error") {
		t.Fatal("expected generic backend message")
	}

	var wrapped error = &ConnectivityError{BaseURL: "http://127.0.0.1:8000", Err: errors.New("refused")}
	var ce *ConnectivityError
	if !errors.As(wrapped, &ce) || !strings.Contains(wrapped.Error(), "127.0.0.1:8000") {
		t.Fatalf("unexpected connectivity error: %v", wrapped)
	}
	if (&HTTPError{Status: 404}).Error() != "HTTP 404" {
		t.Fatal("unexpected http error text")
	}
}

func TestStrengthDots(t *testing.T) {
	if StrengthHigh.Dots() != 3 || StrengthMedium.Dots() != 2 || StrengthLow.Dots() != 1 {
		t.Fatal("unexpected strength dots")
	}
	if AdviceStrength("x").IsValid() || !StrengthLow.IsValid() {
		t.Fatal("unexpected strength validity")
	}
}

func TestDiffActions(t *testing.T) {
	prev := LatestActions([]ViewAdvice{
		{Symbol: "BTC", Action: ActionHold},
		{Symbol: "ETH", Action: ActionBuy},
		{Symbol: "BTC", Action: ActionSell},
		{Symbol: "SOL", Action: ActionSell},
	})
	if prev["BTC"] != ActionHold {
		t.Fatalf("expected newest BTC action hold, got %s", prev["BTC"])
	}

	next := []ViewAdvice{
		{Symbol: "ETH", Action: ActionSell, Name: "Ethereum"},
		{Symbol: "BTC", Action: ActionHold},
		{Symbol: "DOGE", Action: ActionBuy},
		{Symbol: "ETH", Action: ActionBuy},
	}
	changes := DiffActions(prev, next)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %+v", changes)
	}
	if c := changes[0]; c.Symbol != "ETH" || c.From != ActionBuy || c.To != ActionSell {
		t.Fatalf("unexpected change: %+v", c)
	}

	if got := DiffActions(nil, next); len(got) != 0 {
		t.Fatalf("expected no changes without a previous feed, got %+v", got)
	}
}
