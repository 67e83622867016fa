package handler

import (
	"errors"
	"net/http"
	"strings"

	"signal-deck/internal/domain"
	"signal-deck/internal/risk"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

func decimalParam(c *gin.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New(key + " must be a number")
	}
	return v, nil
}

// GetStopLoss godoc
// @Summary      Take-profit / stop-loss plan
// @Description  Computes target prices for a long position. Entry comes from price, or from the latest advice for symbol.
// @Tags         risk
// @Produce      json
// @Param        price   query  number  false  "Entry price"
// @Param        symbol  query  string  false  "Use the latest advised price for this symbol"
// @Param        tp      query  number  false  "Take-profit percent (default 15)"  default(15)
// @Param        sl      query  number  false  "Stop-loss percent (default 15)"    default(15)
// @Param        qty     query  number  false  "Position size (default 1)"
// @Success      200  {object}  risk.Plan
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/stoploss [get]
func (h *Handler) GetStopLoss(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-stoploss")
	defer span.End()

	entry, err := decimalParam(c, "price", decimal.Zero)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol"))); symbol != "" && entry.IsZero() {
		span.SetAttributes(attribute.String("symbol", symbol))
		var advices []domain.ViewAdvice
		if h.feed != nil {
			advices = h.feed.State().Data
		}
		advice, ok := domain.FindAdvice(advices, symbol)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no advice for symbol: " + symbol})
			return
		}
		entry = decimal.NewFromFloat(advice.Price)
	}

	tp, err := decimalParam(c, "tp", decimal.NewFromInt(risk.DefaultTakeProfitPct))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sl, err := decimalParam(c, "sl", decimal.NewFromInt(risk.DefaultStopLossPct))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	qty, err := decimalParam(c, "qty", decimal.Zero)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := risk.NewPlan(entry, tp, sl, qty)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}
