package anomaly

import (
	"math"
	"time"

	"signal-deck/internal/domain"
)

const DefaultThreshold = 0.62

type WhaleScorer struct {
	threshold float64
	opts      TrainOptions
}

func NewWhaleScorer(threshold float64, opts TrainOptions) *WhaleScorer {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &WhaleScorer{threshold: threshold, opts: opts}
}

func whaleFeatures(w domain.WhaleActivity, now time.Time) []float64 {
	return []float64{
		w.Amount,
		math.Abs(w.Impact),
		now.Sub(w.Time).Hours(),
	}
}

// FlagWhales fits a forest on the batch itself and annotates every record.
// Order is preserved.
func (s *WhaleScorer) FlagWhales(activity []domain.WhaleActivity, now time.Time) ([]domain.WhaleFlag, error) {
	if len(activity) == 0 {
		return nil, nil
	}
	samples := make([][]float64, len(activity))
	for i, w := range activity {
		samples[i] = whaleFeatures(w, now)
	}

	model, err := Train(samples, s.opts)
	if err != nil {
		return nil, err
	}

	out := make([]domain.WhaleFlag, len(activity))
	for i, w := range activity {
		score := model.Score(samples[i])
		out[i] = domain.WhaleFlag{
			WhaleActivity: w,
			AnomalyScore:  score,
			Anomalous:     score >= s.threshold,
		}
	}
	return out, nil
}
