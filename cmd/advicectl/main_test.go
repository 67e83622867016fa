package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"signal-deck/internal/config"
	"signal-deck/internal/domain"
	"signal-deck/internal/risk"

	tea "github.com/charmbracelet/bubbletea"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const backendBody = `[
  {"symbol":"ETH","advice_action":"sell","advice_strength":"low","reason":"weak","predicted_at":100,"price":3000},
  {"symbol":"BTC","advice_action":"buy","advice_strength":"high","reason":"breakout","predicted_at":300,"price":100}
]`

func stubCLIDeps(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origRunProgram := runProgramFunc
	t.Cleanup(func() {
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		runProgramFunc = origRunProgram
	})

	loadConfigFunc = func() *config.Config {
		return &config.Config{
			AdviceBaseURL:      srv.URL,
			AdviceRefetchSecs:  30,
			AdviceStaleSecs:    10,
			AdviceTimeoutSecs:  2,
			MarketChangeSource: "random",
		}
	}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
}

func serveAdvice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(backendBody))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFetchJSON(t *testing.T) {
	stubCLIDeps(t, serveAdvice)

	out, err := run(t, "fetch", "--json")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	var advices []domain.ViewAdvice
	if err := json.Unmarshal([]byte(out), &advices); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(advices) != 2 || advices[0].Symbol != "BTC" {
		t.Fatalf("expected newest-first BTC, got %+v", advices)
	}
	if advices[0].Sentiment != 85 || advices[1].Sentiment != 25 {
		t.Fatalf("unexpected sentiment: %d %d", advices[0].Sentiment, advices[1].Sentiment)
	}
}

func TestFetchTable(t *testing.T) {
	stubCLIDeps(t, serveAdvice)

	out, err := run(t, "fetch")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	for _, want := range []string{"SYMBOL", "Bitcoin", "Ethereum", "BUY", "SELL"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table output:\n%s", want, out)
		}
	}
}

func TestFetchBackendError(t *testing.T) {
	stubCLIDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"db down"}`))
	})

	_, err := run(t, "fetch")
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestStopLossWithPrice(t *testing.T) {
	stubCLIDeps(t, serveAdvice)

	out, err := run(t, "stoploss", "--price", "100", "--tp", "20", "--sl", "5", "--qty", "2.5", "--json")
	if err != nil {
		t.Fatalf("stoploss failed: %v", err)
	}
	var plan risk.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.TakeProfitPrice.String() != "120" || plan.StopLossPrice.String() != "95" || plan.RewardRisk.String() != "4" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestStopLossFromSymbol(t *testing.T) {
	stubCLIDeps(t, serveAdvice)

	out, err := run(t, "stoploss", "--symbol", "btc")
	if err != nil {
		t.Fatalf("stoploss failed: %v", err)
	}
	if !strings.Contains(out, "Take profit:  115.00 (+15%)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Stop loss:    85.00 (-15%)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStopLossValidation(t *testing.T) {
	stubCLIDeps(t, serveAdvice)

	if _, err := run(t, "stoploss"); err == nil {
		t.Fatal("expected missing price error")
	}
	if _, err := run(t, "stoploss", "--price", "abc"); err == nil {
		t.Fatal("expected invalid price error")
	}
	if _, err := run(t, "stoploss", "--price", "100", "--sl", "100"); err == nil {
		t.Fatal("expected invalid stop loss error")
	}
	if _, err := run(t, "stoploss", "--symbol", "DOGE"); err == nil {
		t.Fatal("expected unknown symbol error")
	}
}

func TestTUICommandRunsProgram(t *testing.T) {
	stubCLIDeps(t, serveAdvice)

	ran := false
	runProgramFunc = func(m tea.Model) error {
		ran = true
		if m.View() == "" {
			t.Fatal("expected initial view")
		}
		return nil
	}
	if _, err := run(t, "tui"); err != nil {
		t.Fatalf("tui failed: %v", err)
	}
	if !ran {
		t.Fatal("expected program to run")
	}
}

func TestBaseURLFlagOverridesConfig(t *testing.T) {
	stubCLIDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	override := httptest.NewServer(http.HandlerFunc(serveAdvice))
	defer override.Close()

	if _, err := run(t, "--base-url", override.URL+"/", "fetch", "--json"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
}
