package handler

import (
	"errors"
	"net/http"
	"strings"

	"signal-deck/internal/demo"
	"signal-deck/internal/domain"
	"signal-deck/internal/query"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func stateBody(st query.State) gin.H {
	data := st.Data
	if data == nil {
		data = []domain.ViewAdvice{}
	}
	body := gin.H{
		"advices":    data,
		"status":     st.Status,
		"is_loading": st.IsLoading,
	}
	if !st.UpdatedAt.IsZero() {
		body["updated_at"] = st.UpdatedAt
	}
	if st.Err != nil {
		body["error"] = st.Err.Error()
	}
	return body
}

// fetchErrorStatus maps a failed refresh to the status code returned upstream.
func fetchErrorStatus(err error) int {
	var (
		connErr    *domain.ConnectivityError
		backendErr *domain.BackendError
		httpErr    *domain.HTTPError
		emptyErr   *domain.EmptyResultError
	)
	switch {
	case errors.As(err, &emptyErr):
		return http.StatusNotFound
	case errors.As(err, &connErr), errors.As(err, &backendErr), errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ListAdvices godoc
// @Summary      Latest normalized advices
// @Description  Returns the advice feed currently held by the polling query, newest first
// @Tags         advices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/advices [get]
func (h *Handler) ListAdvices(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advice feed unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.list-advices")
	defer span.End()

	st := h.feed.State()
	span.SetAttributes(attribute.String("status", string(st.Status)), attribute.Int("count", len(st.Data)))

	if len(st.Data) == 0 && st.Err != nil {
		c.JSON(fetchErrorStatus(st.Err), stateBody(st))
		return
	}
	c.JSON(http.StatusOK, stateBody(st))
}

// GetAdvice godoc
// @Summary      Advice for one symbol
// @Description  Returns the latest advice for a symbol plus market detail extras
// @Tags         advices
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol (e.g., BTC, ETH)"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/advices/{symbol} [get]
func (h *Handler) GetAdvice(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advice feed unavailable"})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-advice")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	advice, ok := domain.FindAdvice(h.feed.State().Data, symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no advice for symbol: " + symbol})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"advice":  advice,
		"details": demo.DetailExtras(),
	})
}

// RefetchAdvices godoc
// @Summary      Force a refresh
// @Description  Runs one fetch cycle against the advice backend and returns the resulting state
// @Tags         advices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/advices/refetch [post]
func (h *Handler) RefetchAdvices(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advice feed unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refetch-advices")
	defer span.End()

	st, err := h.feed.Refetch(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(fetchErrorStatus(err), stateBody(st))
		return
	}
	c.JSON(http.StatusOK, stateBody(st))
}

// GetDashboard godoc
// @Summary      Dashboard summary
// @Description  Buy/hold/sell counts and averages over the current advice feed
// @Tags         advices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advice feed unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.get-dashboard")
	defer span.End()

	st := h.feed.State()
	body := gin.H{
		"stats":  domain.SummarizeAdvices(st.Data),
		"status": st.Status,
	}
	if st.Err != nil {
		body["error"] = st.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// ListTokens godoc
// @Summary      Token catalog
// @Tags         advices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/tokens [get]
func (h *Handler) ListTokens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tokens": h.catalog.Tokens()})
}
