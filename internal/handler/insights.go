package handler

import (
	"net/http"
	"strconv"
	"strings"

	"signal-deck/internal/demo"
	"signal-deck/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func daysParam(c *gin.Context, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query("days"))
	if raw == "" {
		return fallback, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > demo.MaxDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer between 1 and " + strconv.Itoa(demo.MaxDays)})
		return 0, false
	}
	return days, true
}

// GetSentiment godoc
// @Summary      Sentiment timeline
// @Description  Hourly illustrative sentiment, price and volume series with notable events
// @Tags         sentiment
// @Produce      json
// @Param        symbol  path   string  true   "Asset symbol (e.g., BTC, ETH)"
// @Param        days    query  int     false  "Number of days (default 7, max 90)"  default(7)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/sentiment/{symbol} [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	if h.demo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "demo generator unavailable"})
		return
	}

	days, ok := daysParam(c, demo.DefaultTimelineDays)
	if !ok {
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	_, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("days", days))

	c.JSON(http.StatusOK, h.demo.SentimentTimeline(symbol, days))
}

// GetSentimentChart godoc
// @Summary      Sentiment timeline chart
// @Tags         sentiment
// @Produce      png
// @Param        symbol  path   string  true   "Asset symbol (e.g., BTC, ETH)"
// @Param        days    query  int     false  "Number of days (default 7, max 90)"  default(7)
// @Success      200  {file}    binary
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/sentiment/{symbol}/chart.png [get]
func (h *Handler) GetSentimentChart(c *gin.Context) {
	if h.demo == nil || h.renderer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chart rendering unavailable"})
		return
	}

	days, ok := daysParam(c, demo.DefaultTimelineDays)
	if !ok {
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	_, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment-chart")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("days", days))

	img, err := h.renderer.RenderSentimentChart(h.demo.SentimentTimeline(symbol, days))
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render chart"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}

// CompareSentiment godoc
// @Summary      Multi-coin sentiment snapshot
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/sentiment/compare [get]
func (h *Handler) CompareSentiment(c *gin.Context) {
	if h.demo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "demo generator unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.compare-sentiment")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"coins": h.demo.MultiCoinSentiment()})
}

// ListInfluencers godoc
// @Summary      Tracked influencers
// @Tags         influencers
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/influencers [get]
func (h *Handler) ListInfluencers(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-influencers")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"influencers": demo.Influencers(h.now())})
}

// GetInfluencerStance godoc
// @Summary      Influencer stance history
// @Tags         influencers
// @Produce      json
// @Param        id    path   string  true   "Influencer ID"
// @Param        days  query  int     false  "Number of days (default 30, max 90)"  default(30)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/influencers/{id}/stance [get]
func (h *Handler) GetInfluencerStance(c *gin.Context) {
	if h.demo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "demo generator unavailable"})
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	influencer, found := demo.FindInfluencer(h.now(), id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown influencer: " + id})
		return
	}
	days, ok := daysParam(c, demo.DefaultStanceDays)
	if !ok {
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.get-influencer-stance")
	defer span.End()
	span.SetAttributes(attribute.String("influencer", id), attribute.Int("days", days))

	c.JSON(http.StatusOK, gin.H{
		"influencer": influencer,
		"history":    h.demo.StanceHistory(id, days),
	})
}

// ListWhales godoc
// @Summary      Whale activity with anomaly flags
// @Description  Illustrative large transfers scored by an isolation forest
// @Tags         whales
// @Produce      json
// @Param        anomalous  query  bool  false  "Only return flagged records"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/whales [get]
func (h *Handler) ListWhales(c *gin.Context) {
	if h.demo == nil || h.whales == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "whale scoring unavailable"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.list-whales")
	defer span.End()

	flags, err := h.whales.FlagWhales(h.demo.WhaleActivity(), h.now())
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to score whale activity"})
		return
	}

	if onlyAnomalous, _ := strconv.ParseBool(c.Query("anomalous")); onlyAnomalous {
		filtered := make([]domain.WhaleFlag, 0, len(flags))
		for _, f := range flags {
			if f.Anomalous {
				filtered = append(filtered, f)
			}
		}
		flags = filtered
	}
	if flags == nil {
		flags = []domain.WhaleFlag{}
	}
	span.SetAttributes(attribute.Int("count", len(flags)))

	c.JSON(http.StatusOK, gin.H{"whales": flags})
}
