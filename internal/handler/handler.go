package handler

import (
	"context"
	"net/http"
	"time"

	"signal-deck/internal/anomaly"
	"signal-deck/internal/catalog"
	"signal-deck/internal/chart"
	"signal-deck/internal/demo"
	"signal-deck/internal/query"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// AdviceFeed is the slice of the advice query the HTTP layer reads from.
type AdviceFeed interface {
	State() query.State
	Refetch(ctx context.Context) (query.State, error)
}

type Handler struct {
	tracer   trace.Tracer
	feed     AdviceFeed
	catalog  *catalog.Catalog
	demo     *demo.Generator
	renderer *chart.Renderer
	whales   *anomaly.WhaleScorer
	stream   http.Handler
	now      func() time.Time
}

func New(
	tracer trace.Tracer,
	feed AdviceFeed,
	cat *catalog.Catalog,
	gen *demo.Generator,
	renderer *chart.Renderer,
	whales *anomaly.WhaleScorer,
	stream http.Handler,
) *Handler {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Handler{
		tracer:   tracer,
		feed:     feed,
		catalog:  cat,
		demo:     gen,
		renderer: renderer,
		whales:   whales,
		stream:   stream,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/advices", h.ListAdvices)
	r.GET("/api/advices/:symbol", h.GetAdvice)
	r.POST("/api/advices/refetch", h.RefetchAdvices)
	r.GET("/api/dashboard", h.GetDashboard)
	r.GET("/api/tokens", h.ListTokens)
	r.GET("/api/sentiment/compare", h.CompareSentiment)
	r.GET("/api/sentiment/:symbol", h.GetSentiment)
	r.GET("/api/sentiment/:symbol/chart.png", h.GetSentimentChart)
	r.GET("/api/influencers", h.ListInfluencers)
	r.GET("/api/influencers/:id/stance", h.GetInfluencerStance)
	r.GET("/api/whales", h.ListWhales)
	r.GET("/api/stoploss", h.GetStopLoss)
	if h.stream != nil {
		r.GET("/ws", gin.WrapH(h.stream))
	}
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
