package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"signal-deck/internal/chart"
	"signal-deck/internal/demo"
	"signal-deck/internal/domain"
	"signal-deck/internal/metrics"
	"signal-deck/internal/query"
	"signal-deck/internal/risk"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"
)

const maxReplyLen = 4000

const helpText = `Commands:
/advice [SYM] - latest advices, or one symbol in detail
/dashboard - buy/hold/sell summary
/refresh - fetch advices now
/chart SYM - sentiment chart
/stoploss SYM [tp%] [sl%] - take-profit / stop-loss targets
/alerts on|off|status - action change alerts
/ask <question> - ask the advisor
/reset - clear advisor history`

type AdviceFeed interface {
	State() query.State
	Refetch(ctx context.Context) (query.State, error)
}

type Advisor interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
	Reset(chatID int64)
}

type Deps struct {
	Feed     AdviceFeed
	Advisor  Advisor
	Demo     *demo.Generator
	Renderer *chart.Renderer
}

// StartTelegramBot registers commands and starts long polling in the background.
// It returns nil when no token is configured.
func StartTelegramBot(token string, deps Deps) *AlertDispatcher {
	if token == "" {
		log.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatal("failed to create Telegram bot", "err", err)
	}
	alerts := NewAlertDispatcher(b)
	registerCommands(b, deps, alerts)

	log.Info("Telegram bot started")
	go b.Start()
	return alerts
}

func counted(command string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.BotCommands.WithLabelValues(command).Inc()
		return h(c)
	}
}

func registerCommands(b *tele.Bot, deps Deps, alerts *AlertDispatcher) {
	b.Handle("/start", counted("start", func(c tele.Context) error {
		return c.Send("Signal Deck keeps you posted on buy/hold/sell advices.\n\n" + helpText)
	}))
	b.Handle("/help", counted("help", func(c tele.Context) error {
		return c.Send(helpText)
	}))
	b.Handle("/ping", counted("ping", func(c tele.Context) error {
		return c.Send("pong")
	}))

	b.Handle("/advice", counted("advice", func(c tele.Context) error {
		if deps.Feed == nil {
			return c.Send("Advice feed unavailable")
		}
		return c.Send(adviceReply(deps.Feed.State(), c.Args()))
	}))

	b.Handle("/dashboard", counted("dashboard", func(c tele.Context) error {
		if deps.Feed == nil {
			return c.Send("Advice feed unavailable")
		}
		return c.Send(dashboardReply(deps.Feed.State()))
	}))

	b.Handle("/refresh", counted("refresh", func(c tele.Context) error {
		if deps.Feed == nil {
			return c.Send("Advice feed unavailable")
		}
		_ = c.Notify(tele.Typing)
		st, err := deps.Feed.Refetch(context.Background())
		if err != nil {
			return c.Send("Refresh failed: " + err.Error())
		}
		return c.Send(adviceReply(st, nil))
	}))

	b.Handle("/chart", counted("chart", func(c tele.Context) error {
		if deps.Demo == nil || deps.Renderer == nil {
			return c.Send("Charts unavailable")
		}
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /chart BTC")
		}
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))
		img, err := deps.Renderer.RenderSentimentChart(deps.Demo.SentimentTimeline(symbol, demo.DefaultTimelineDays))
		if err != nil {
			log.Warn("chart render failed", "symbol", symbol, "err", err)
			return c.Send("Could not render chart for " + symbol)
		}
		return c.Send(&tele.Photo{
			File:    tele.FromReader(bytes.NewReader(img.Bytes)),
			Caption: fmt.Sprintf("%s sentiment, last %d days (illustrative)", symbol, demo.DefaultTimelineDays),
		})
	}))

	b.Handle("/stoploss", counted("stoploss", func(c tele.Context) error {
		if deps.Feed == nil {
			return c.Send("Advice feed unavailable")
		}
		return c.Send(stopLossReply(deps.Feed.State(), c.Args()))
	}))

	b.Handle("/alerts", counted("alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID) {
				return c.Send("Action change alerts enabled for this chat.")
			}
			return c.Send("Action change alerts are already enabled for this chat.")
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Action change alerts disabled for this chat.")
			}
			return c.Send("Action change alerts are already disabled for this chat.")
		default:
			if alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	}))

	b.Handle("/ask", counted("ask", func(c tele.Context) error {
		if deps.Advisor == nil {
			return c.Send("Advisor not configured. Set OPENAI_API_KEY to enable.")
		}
		question := strings.TrimSpace(c.Message().Payload)
		if question == "" {
			return c.Send("Usage: /ask <question>\nExample: /ask Should I hold ETH?")
		}
		return handleAdvisorQuery(c, deps.Advisor, question)
	}))

	b.Handle("/reset", counted("reset", func(c tele.Context) error {
		if deps.Advisor == nil {
			return c.Send("Advisor not configured.")
		}
		deps.Advisor.Reset(c.Chat().ID)
		return c.Send("Conversation cleared.")
	}))

	b.Handle(tele.OnText, func(c tele.Context) error {
		if deps.Advisor == nil {
			return nil
		}
		text := strings.TrimSpace(c.Text())
		if text == "" {
			return nil
		}
		return handleAdvisorQuery(c, deps.Advisor, text)
	})
}

func handleAdvisorQuery(c tele.Context, adv Advisor, question string) error {
	_ = c.Notify(tele.Typing)

	reply, err := adv.Ask(context.Background(), c.Chat().ID, question)
	if err != nil {
		log.Warn("advisor error", "chat", c.Chat().ID, "err", err)
		return c.Send("Sorry, I'm having trouble right now. Try /advice for the raw feed.")
	}
	return c.Send(truncateReply(reply))
}

func truncateReply(reply string) string {
	if len(reply) > maxReplyLen {
		return reply[:maxReplyLen] + "\n\n[truncated]"
	}
	return reply
}

// feedNotice explains an empty or failing feed, or returns "" when data is usable.
func feedNotice(st query.State) string {
	switch {
	case len(st.Data) > 0 && st.Err != nil:
		return "Latest refresh failed (" + st.Err.Error() + "), showing last known data.\n\n"
	case len(st.Data) > 0:
		return ""
	case st.Err != nil:
		return "Advice feed error: " + st.Err.Error()
	case st.Status == query.StatusIdle || st.IsLoading:
		return "Advices are still loading, try again shortly."
	}
	return "No advices available."
}

func adviceReply(st query.State, args []string) string {
	notice := feedNotice(st)
	if len(st.Data) == 0 {
		return notice
	}

	if len(args) > 0 {
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))
		a, ok := domain.FindAdvice(st.Data, symbol)
		if !ok {
			return notice + "No advice for " + symbol
		}
		return notice + formatAdviceDetail(a)
	}

	lines := []string{"Latest advices:"}
	for _, a := range st.Data {
		lines = append(lines, formatAdviceLine(a))
	}
	return notice + strings.Join(lines, "\n")
}

func dashboardReply(st query.State) string {
	notice := feedNotice(st)
	if len(st.Data) == 0 {
		return notice
	}
	stats := domain.SummarizeAdvices(st.Data)
	reply := notice + fmt.Sprintf(
		"Dashboard (%d advices)\nBuy: %d\nHold: %d\nSell: %d\nAvg 24h change: %+.2f%%\nAvg sentiment: %.0f",
		len(st.Data), stats.Buy, stats.Hold, stats.Sell, stats.AvgChange24h, stats.AvgSentiment,
	)
	if !st.UpdatedAt.IsZero() {
		reply += "\nUpdated " + humanize.Time(st.UpdatedAt)
	}
	return reply
}

func stopLossReply(st query.State, args []string) string {
	const usage = "Usage: /stoploss BTC [take-profit %] [stop-loss %]"
	if len(args) == 0 {
		return usage
	}
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	a, ok := domain.FindAdvice(st.Data, symbol)
	if !ok {
		return "No advice for " + symbol
	}

	tp := decimal.NewFromInt(risk.DefaultTakeProfitPct)
	sl := decimal.NewFromInt(risk.DefaultStopLossPct)
	var err error
	if len(args) > 1 {
		if tp, err = decimal.NewFromString(strings.TrimSuffix(args[1], "%")); err != nil {
			return usage
		}
	}
	if len(args) > 2 {
		if sl, err = decimal.NewFromString(strings.TrimSuffix(args[2], "%")); err != nil {
			return usage
		}
	}

	plan, err := risk.NewPlan(decimal.NewFromFloat(a.Price), tp, sl, decimal.Zero)
	if err != nil {
		return "Invalid plan: " + err.Error()
	}
	return fmt.Sprintf("%s entry %s\nTake profit +%s%%: $%s\nStop loss -%s%%: $%s\nReward/risk: %s",
		symbol, formatPrice(a.Price),
		plan.TakeProfitPct, plan.TakeProfitPrice.StringFixed(2),
		plan.StopLossPct, plan.StopLossPrice.StringFixed(2),
		plan.RewardRisk.StringFixed(2),
	)
}

func formatAdviceLine(a domain.ViewAdvice) string {
	return fmt.Sprintf("%s %s (%s) %s %+.2f%%",
		a.Symbol,
		strings.ToUpper(string(a.Action)),
		a.Strength,
		formatPrice(a.Price),
		a.Change24h,
	)
}

func formatAdviceDetail(a domain.ViewAdvice) string {
	return fmt.Sprintf("%s · %s\nAdvice: %s (%s confidence)\nPrice: %s (24h %+.2f%%)\nVolume: %s\nMarket cap: %s\nSentiment: %d/100\nPredicted: %s\n\n%s",
		a.Symbol, a.Name,
		strings.ToUpper(string(a.Action)), a.Strength,
		formatPrice(a.Price), a.Change24h,
		a.Volume, a.MarketCap,
		a.Sentiment,
		a.PredictedTime().Format(time.RFC822),
		a.Reason,
	)
}

func formatPrice(v float64) string {
	if v < 1 {
		return fmt.Sprintf("$%.4f", v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}
