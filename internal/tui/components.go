package tui

import (
	"fmt"
	"math"
	"strings"

	"signal-deck/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func actionStyle(a domain.AdviceAction) lipgloss.Style {
	switch a {
	case domain.ActionBuy:
		return ActionBuyStyle
	case domain.ActionSell:
		return ActionSellStyle
	}
	return ActionHoldStyle
}

func changeStyle(pct float64) lipgloss.Style {
	switch {
	case pct > 0:
		return PriceUpStyle
	case pct < 0:
		return PriceDownStyle
	}
	return PriceZeroStyle
}

func formatChange(pct float64) string {
	sign := ""
	if pct > 0 {
		sign = "+"
	}
	return changeStyle(pct).Render(fmt.Sprintf("%s%.2f%%", sign, pct))
}

// strengthDots renders ●●○ style confidence markers.
func strengthDots(s domain.AdviceStrength) string {
	n := s.Dots()
	return strings.Repeat("●", n) + strings.Repeat("○", 3-n)
}

// FormatAdvice renders an advice as a single table row.
func FormatAdvice(a domain.ViewAdvice) string {
	return fmt.Sprintf("%-6s %-14s %12s  %s  %s %s  %3d",
		a.Symbol,
		truncate(a.Name, 14),
		formatUSD(a.Price),
		formatChange(a.Change24h),
		actionStyle(a.Action).Render(fmt.Sprintf("%-4s", strings.ToUpper(string(a.Action)))),
		strengthDots(a.Strength),
		a.Sentiment,
	)
}

// RenderHeatMap renders a colored grid showing 24h change for each symbol.
func RenderHeatMap(advices []domain.ViewAdvice, width int) string {
	if len(advices) == 0 {
		return SubtextStyle.Render("No advice data")
	}

	cellWidth := 8
	cols := max(width/cellWidth, 1)

	var rows []string
	var row []string
	for i, a := range advices {
		bg := HeatNeutral
		if a.Change24h > 0 {
			bg = heatColorScale(a.Change24h, 5, HeatGreen)
		} else if a.Change24h < 0 {
			bg = heatColorScale(-a.Change24h, 5, HeatRed)
		}

		cell := lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Width(cellWidth - 1).
			Align(lipgloss.Center).
			Render(a.Symbol)

		row = append(row, cell)
		if (i+1)%cols == 0 || i == len(advices)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return strings.Join(rows, "\n")
}

// RenderSentimentBar renders a 0-100 score as a horizontal bar.
func RenderSentimentBar(label string, score float64, barWidth int) string {
	if barWidth <= 0 {
		barWidth = 20
	}
	ratio := math.Max(0, math.Min(score/100, 1))
	filled := int(math.Round(ratio * float64(barWidth)))
	empty := barWidth - filled

	style := SentimentHighStyle
	if score < 40 {
		style = SentimentLowStyle
	} else if score < 60 {
		style = SentimentMidStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) + SubtextStyle.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%-12s %s %5.1f", label, bar, score)
}

// RenderSparkline compresses values into at most width block characters.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	step := max(len(values)/width, 1)

	var sampled []float64
	for i := 0; i < len(values); i += step {
		sampled = append(sampled, values[i])
	}

	lo, hi := sampled[0], sampled[0]
	for _, v := range sampled {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var b strings.Builder
	for _, v := range sampled {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// heatColorScale produces a color scaled by magnitude.
func heatColorScale(magnitude, maxMagnitude float64, baseColor lipgloss.Color) lipgloss.Color {
	intensity := math.Min(magnitude/maxMagnitude, 1)
	if intensity < 0.1 {
		return HeatNeutral
	}
	return baseColor
}

func formatUSD(v float64) string {
	if v >= 1000 {
		return "$" + humanize.Comma(int64(math.Round(v)))
	}
	if v >= 1 {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("$%.4f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
