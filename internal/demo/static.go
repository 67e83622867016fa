package demo

import (
	"fmt"
	"time"

	"signal-deck/internal/domain"
)

const avatarBase = "https://api.dicebear.com/7.x/avataaars/svg?seed="

type influencerSeed struct {
	name, handle, seed string
	followers, score   int
	stance             domain.Stance
	strength           domain.AdviceStrength
	age                time.Duration
	platform           string
	verified           bool
}

var influencerSeeds = []influencerSeed{
	{"Changpeng Zhao", "@cz_binance", "CZ", 9200000, 98, domain.StanceBullish, domain.StrengthHigh, 2 * time.Hour, "Twitter", true},
	{"Vitalik Buterin", "@VitalikButerin", "Vitalik", 5400000, 96, domain.StanceNeutral, domain.StrengthMedium, 5 * time.Hour, "Twitter", true},
	{"Michael Saylor", "@saylor", "Saylor", 3100000, 94, domain.StanceBullish, domain.StrengthHigh, time.Hour, "Twitter", true},
	{"BitBoy Crypto", "@BitBoy_Crypto", "BitBoy", 1800000, 88, domain.StanceBullish, domain.StrengthMedium, 30 * time.Minute, "YouTube", true},
	{"Crypto Rover", "@rovercrc", "Rover", 1200000, 85, domain.StanceBearish, domain.StrengthLow, 4 * time.Hour, "Twitter", true},
	{"Crypto Cobain", "@CryptoCobain", "Cobain", 980000, 82, domain.StanceNeutral, domain.StrengthHigh, 6 * time.Hour, "Twitter", true},
	{"Crypto Wendy O", "@CryptoWendyO", "Wendy", 850000, 79, domain.StanceBullish, domain.StrengthMedium, 3 * time.Hour, "Twitter", false},
	{"Lark Davis", "@TheCryptoLark", "Lark", 780000, 76, domain.StanceBullish, domain.StrengthHigh, 8 * time.Hour, "YouTube", true},
	{"Ivan on Tech", "@IvanOnTech", "Ivan", 650000, 73, domain.StanceNeutral, domain.StrengthLow, 12 * time.Hour, "YouTube", true},
	{"Ben Armstrong", "@Bitboy_Crypto", "Ben", 620000, 70, domain.StanceBearish, domain.StrengthMedium, 7 * time.Hour, "Twitter", false},
}

// Influencers returns the fixed KOL roster, last-update times relative to now.
func Influencers(now time.Time) []domain.Influencer {
	out := make([]domain.Influencer, 0, len(influencerSeeds))
	for i, s := range influencerSeeds {
		out = append(out, domain.Influencer{
			ID:             fmt.Sprintf("%d", i+1),
			Name:           s.name,
			Handle:         s.handle,
			Avatar:         avatarBase + s.seed,
			Followers:      s.followers,
			InfluenceScore: s.score,
			RecentStance:   s.stance,
			StanceStrength: s.strength,
			LastUpdate:     now.Add(-s.age).UTC(),
			Platform:       s.platform,
			Verified:       s.verified,
		})
	}
	return out
}

func FindInfluencer(now time.Time, id string) (domain.Influencer, bool) {
	for _, inf := range Influencers(now) {
		if inf.ID == id {
			return inf, true
		}
	}
	return domain.Influencer{}, false
}

func FormatFollowers(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

func DetailExtras() domain.DetailExtras {
	return domain.DetailExtras{
		Exchanges: []domain.Exchange{
			{Name: "Binance", Fee: "0.1%", Volume: "$2.4B", Rating: 4.8},
			{Name: "Coinbase", Fee: "0.5%", Volume: "$1.8B", Rating: 4.6},
			{Name: "Kraken", Fee: "0.26%", Volume: "$890M", Rating: 4.5},
			{Name: "OKX", Fee: "0.15%", Volume: "$1.2B", Rating: 4.7},
		},
		Predictions: []domain.PricePrediction{
			{Timeframe: "24h", Change: "+2.5%", Confidence: "high"},
			{Timeframe: "7d", Change: "+8.3%", Confidence: "medium"},
			{Timeframe: "30d", Change: "+15.7%", Confidence: "medium"},
			{Timeframe: "90d", Change: "+24.2%", Confidence: "low"},
		},
		Social: domain.SocialMetrics{
			Mentions:       "12.4K",
			Sentiment:      "Bullish",
			TopInfluencers: []string{"@CryptoWhale", "@BlockchainBoss", "@Web3Guru"},
			TrendingScore:  87,
		},
	}
}
