package domain

import "time"

type SentimentPoint struct {
	Time      time.Time `json:"time"`
	Sentiment float64   `json:"sentiment"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

type EventKind string

const (
	EventPositive EventKind = "positive"
	EventNegative EventKind = "negative"
	EventNeutral  EventKind = "neutral"
)

type SentimentEvent struct {
	Time   time.Time `json:"time"`
	Title  string    `json:"title"`
	Kind   EventKind `json:"type"`
	Impact float64   `json:"impact"`
}

type SentimentTimeline struct {
	Symbol string           `json:"symbol"`
	Points []SentimentPoint `json:"data"`
	Events []SentimentEvent `json:"events"`
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type CoinSentiment struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	CurrentSentiment float64 `json:"current_sentiment"`
	Change24h        float64 `json:"change_24h"`
	Trend            Trend   `json:"trend"`
}

type Stance string

const (
	StanceBullish Stance = "bullish"
	StanceBearish Stance = "bearish"
	StanceNeutral Stance = "neutral"
)

type Influencer struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Handle         string         `json:"handle"`
	Avatar         string         `json:"avatar"`
	Followers      int            `json:"followers"`
	InfluenceScore int            `json:"influence_score"`
	RecentStance   Stance         `json:"recent_stance"`
	StanceStrength AdviceStrength `json:"stance_strength"`
	LastUpdate     time.Time      `json:"last_update"`
	Platform       string         `json:"platform"`
	Verified       bool           `json:"verified"`
}

type StanceEntry struct {
	Time       time.Time `json:"time"`
	Stance     Stance    `json:"stance"`
	Confidence float64   `json:"confidence"`
	Event      string    `json:"event,omitempty"`
}

type WhaleActivity struct {
	Address string       `json:"address"`
	Action  AdviceAction `json:"action"`
	Amount  float64      `json:"amount"`
	Asset   string       `json:"asset"`
	Time    time.Time    `json:"time"`
	Impact  float64      `json:"impact"`
}

// WhaleFlag is a whale activity record annotated by the anomaly model.
type WhaleFlag struct {
	WhaleActivity
	AnomalyScore float64 `json:"anomaly_score"`
	Anomalous    bool    `json:"anomalous"`
}

type Exchange struct {
	Name   string  `json:"name"`
	Fee    string  `json:"fee"`
	Volume string  `json:"volume"`
	Rating float64 `json:"rating"`
}

type PricePrediction struct {
	Timeframe  string `json:"timeframe"`
	Change     string `json:"change"`
	Confidence string `json:"confidence"`
}

type SocialMetrics struct {
	Mentions       string   `json:"mentions"`
	Sentiment      string   `json:"sentiment"`
	TopInfluencers []string `json:"top_influencers"`
	TrendingScore  int      `json:"trending_score"`
}

// DetailExtras holds the illustrative panels shown next to one advice.
type DetailExtras struct {
	Exchanges   []Exchange        `json:"exchanges"`
	Predictions []PricePrediction `json:"predictions"`
	Social      SocialMetrics     `json:"social"`
}
