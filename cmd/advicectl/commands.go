package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"signal-deck/internal/config"
	"signal-deck/internal/demo"
	"signal-deck/internal/domain"
	"signal-deck/internal/feed"
	"signal-deck/internal/risk"
	"signal-deck/internal/tui"
	"signal-deck/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	buildFeedFunc  = feed.Build
	runProgramFunc = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

// app carries what every subcommand needs once the root pre-run finished.
type app struct {
	cfg    *config.Config
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "advicectl",
		Short:         "Signal Deck command line client",
		Long:          "advicectl reads buy/hold/sell advice from the advice API and plans stop-loss targets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = loadConfigFunc()
			if base, _ := cmd.Flags().GetString("base-url"); base != "" {
				a.cfg.AdviceBaseURL = strings.TrimRight(base, "/")
			}
			tp, tracer, err := initTracerFunc(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize tracer: %w", err)
			}
			a.tp, a.tracer = tp, tracer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.tp == nil {
				return nil
			}
			return a.tp.Shutdown(context.Background())
		},
	}

	rootCmd.PersistentFlags().String("base-url", "", "advice API base URL (overrides ADVICE_API_BASE_URL)")

	rootCmd.AddCommand(newFetchCmd(a))
	rootCmd.AddCommand(newTUICmd(a))
	rootCmd.AddCommand(newStopLossCmd(a))
	return rootCmd
}

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the latest advice once and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			f, err := buildFeedFunc(cmd.Context(), a.cfg, a.tracer)
			if err != nil {
				return err
			}
			defer f.Close()

			advices, err := f.Service.Load(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), advices)
			}
			return writeAdviceTable(cmd.OutOrStdout(), advices)
		},
	}
	cmd.Flags().Bool("json", false, "print normalized advice as JSON")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := buildFeedFunc(cmd.Context(), a.cfg, a.tracer)
			if err != nil {
				return err
			}
			defer f.Close()

			m := tui.NewAppModel(tui.Services{
				Feed:     f.Query,
				Demo:     demo.NewGenerator(nil, nil),
				Username: "local",
			})
			defer m.Close()
			return runProgramFunc(m)
		},
	}
}

func newStopLossCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stoploss",
		Short: "Compute take-profit and stop-loss targets for a long position",
		Long: `Compute take-profit and stop-loss prices for a long position.
Pass --price for an explicit entry, or --symbol to use the latest advised price.
Example: advicectl stoploss --symbol BTC --tp 20 --sl 5 --qty 0.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			priceRaw, _ := cmd.Flags().GetString("price")
			symbol, _ := cmd.Flags().GetString("symbol")
			tpRaw, _ := cmd.Flags().GetString("tp")
			slRaw, _ := cmd.Flags().GetString("sl")
			qtyRaw, _ := cmd.Flags().GetString("qty")
			asJSON, _ := cmd.Flags().GetBool("json")

			var entry decimal.Decimal
			switch {
			case priceRaw != "":
				v, err := decimal.NewFromString(priceRaw)
				if err != nil {
					return fmt.Errorf("invalid --price: %w", err)
				}
				entry = v
			case symbol != "":
				v, err := latestPrice(cmd.Context(), a, symbol)
				if err != nil {
					return err
				}
				entry = v
			default:
				return fmt.Errorf("one of --price or --symbol is required")
			}

			tp, err := decimal.NewFromString(tpRaw)
			if err != nil {
				return fmt.Errorf("invalid --tp: %w", err)
			}
			sl, err := decimal.NewFromString(slRaw)
			if err != nil {
				return fmt.Errorf("invalid --sl: %w", err)
			}
			qty, err := decimal.NewFromString(qtyRaw)
			if err != nil {
				return fmt.Errorf("invalid --qty: %w", err)
			}

			plan, err := risk.NewPlan(entry, tp, sl, qty)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), plan)
			}
			writePlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
	cmd.Flags().String("price", "", "entry price")
	cmd.Flags().String("symbol", "", "use the latest advised price for this symbol")
	cmd.Flags().String("tp", fmt.Sprint(risk.DefaultTakeProfitPct), "take-profit percent")
	cmd.Flags().String("sl", fmt.Sprint(risk.DefaultStopLossPct), "stop-loss percent")
	cmd.Flags().String("qty", "1", "position quantity")
	cmd.Flags().Bool("json", false, "print the plan as JSON")
	return cmd
}

func latestPrice(ctx context.Context, a *app, symbol string) (decimal.Decimal, error) {
	f, err := buildFeedFunc(ctx, a.cfg, a.tracer)
	if err != nil {
		return decimal.Zero, err
	}
	defer f.Close()

	advices, err := f.Service.Load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	advice, ok := domain.FindAdvice(advices, symbol)
	if !ok {
		return decimal.Zero, fmt.Errorf("no advice for symbol %s", symbol)
	}
	return decimal.NewFromFloat(advice.Price), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func writeAdviceTable(w io.Writer, advices []domain.ViewAdvice) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SYMBOL", "NAME", "PRICE", "24H", "ACTION", "STRENGTH", "SENTIMENT", "PREDICTED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, a := range advices {
		t.Row(
			a.Symbol,
			a.Name,
			fmt.Sprintf("%.2f", a.Price),
			fmt.Sprintf("%+.2f%%", a.Change24h),
			strings.ToUpper(string(a.Action)),
			string(a.Strength),
			fmt.Sprintf("%d", a.Sentiment),
			a.PredictedTime().Format(time.DateTime),
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writePlan(w io.Writer, p risk.Plan) {
	fmt.Fprintf(w, "Entry:        %s x %s\n", p.Entry.String(), p.Quantity.String())
	fmt.Fprintf(w, "Take profit:  %s (+%s%%)\n", p.TakeProfitPrice.StringFixed(2), p.TakeProfitPct.String())
	fmt.Fprintf(w, "Stop loss:    %s (-%s%%)\n", p.StopLossPrice.StringFixed(2), p.StopLossPct.String())
	fmt.Fprintf(w, "Profit/loss:  +%s / -%s\n", p.PotentialProfit.StringFixed(2), p.PotentialLoss.StringFixed(2))
	fmt.Fprintf(w, "Reward/risk:  %s\n", p.RewardRisk.StringFixed(2))
}
