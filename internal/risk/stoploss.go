// Package risk computes take-profit / stop-loss targets for a position.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	DefaultTakeProfitPct = 15
	DefaultStopLossPct   = 15
	maxTakeProfitPct     = 1000
	maxStopLossPct       = 100
)

var (
	ErrInvalidPrice      = errors.New("entry price must be positive")
	ErrInvalidTakeProfit = fmt.Errorf("take-profit percent must be in (0, %d]", maxTakeProfitPct)
	ErrInvalidStopLoss   = fmt.Errorf("stop-loss percent must be in (0, %d)", maxStopLossPct)
	ErrInvalidQuantity   = errors.New("quantity must not be negative")
)

var hundred = decimal.NewFromInt(100)

type Plan struct {
	Entry           decimal.Decimal `json:"entry"`
	Quantity        decimal.Decimal `json:"quantity"`
	TakeProfitPct   decimal.Decimal `json:"take_profit_pct"`
	StopLossPct     decimal.Decimal `json:"stop_loss_pct"`
	TakeProfitPrice decimal.Decimal `json:"take_profit_price"`
	StopLossPrice   decimal.Decimal `json:"stop_loss_price"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
	PotentialLoss   decimal.Decimal `json:"potential_loss"`
	RewardRisk      decimal.Decimal `json:"reward_risk"`
}

// NewPlan computes targets for a long position. A zero quantity means one unit.
func NewPlan(entry, takeProfitPct, stopLossPct, quantity decimal.Decimal) (Plan, error) {
	if !entry.IsPositive() {
		return Plan{}, ErrInvalidPrice
	}
	if !takeProfitPct.IsPositive() || takeProfitPct.GreaterThan(decimal.NewFromInt(maxTakeProfitPct)) {
		return Plan{}, ErrInvalidTakeProfit
	}
	if !stopLossPct.IsPositive() || stopLossPct.GreaterThanOrEqual(decimal.NewFromInt(maxStopLossPct)) {
		return Plan{}, ErrInvalidStopLoss
	}
	if quantity.IsNegative() {
		return Plan{}, ErrInvalidQuantity
	}
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	tp := entry.Mul(decimal.NewFromInt(1).Add(takeProfitPct.Div(hundred)))
	sl := entry.Mul(decimal.NewFromInt(1).Sub(stopLossPct.Div(hundred)))
	profit := tp.Sub(entry).Mul(quantity)
	loss := entry.Sub(sl).Mul(quantity)

	return Plan{
		Entry:           entry,
		Quantity:        quantity,
		TakeProfitPct:   takeProfitPct,
		StopLossPct:     stopLossPct,
		TakeProfitPrice: tp,
		StopLossPrice:   sl,
		PotentialProfit: profit,
		PotentialLoss:   loss,
		RewardRisk:      takeProfitPct.DivRound(stopLossPct, 4),
	}, nil
}

func DefaultPlan(entry decimal.Decimal) (Plan, error) {
	return NewPlan(entry, decimal.NewFromInt(DefaultTakeProfitPct), decimal.NewFromInt(DefaultStopLossPct), decimal.Zero)
}

// PercentFromTarget converts a target price back to a signed percent of entry.
func PercentFromTarget(entry, target decimal.Decimal) (decimal.Decimal, error) {
	if !entry.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return target.Sub(entry).Div(entry).Mul(hundred).Round(2), nil
}
