package strategy

import (
	"github.com/shopspring/decimal"

	"vectra/internal/config"
)

// Bounds are the sizing limits the policy trades against. Quantities are in
// the base asset.
type Bounds struct {
	MaxPosition    decimal.Decimal
	MinPosition    decimal.Decimal
	OrderSize      decimal.Decimal
	MinOrderSize   decimal.Decimal
	EntryThreshold float64
	ExitThreshold  float64
}

func BoundsFromConfig(t config.TradingConfig) Bounds {
	return Bounds{
		MaxPosition:    decimal.NewFromFloat(t.MaxPosition),
		MinPosition:    decimal.NewFromFloat(t.MinPosition),
		OrderSize:      decimal.NewFromFloat(t.OrderSize),
		MinOrderSize:   decimal.NewFromFloat(t.MinOrderSize),
		EntryThreshold: t.EntryThreshold,
		ExitThreshold:  t.ExitThreshold,
	}
}

// ActionKind is the closed set of sizing outcomes.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionBuy
	ActionSell
)

func (k ActionKind) String() string {
	switch k {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	default:
		return "none"
	}
}

// Action is the sizing decision for one signal.
type Action struct {
	Kind   ActionKind
	Amount decimal.Decimal
}

// Decide converts a signal and the current exposure into a trade action.
//
// A signal above the entry threshold increases exposure if there is room
// left below MaxPosition and the room exceeds the minimum order size; a
// signal below the exit threshold reduces exposure symmetrically against
// MinPosition. Anything between the thresholds is a hold. The entry branch
// is evaluated first, so misconfigured overlapping thresholds resolve to an
// entry.
func Decide(signalValue float64, exposure decimal.Decimal, b Bounds) Action {
	if exposure.IsNegative() {
		exposure = decimal.Zero
	}

	if signalValue > b.EntryThreshold {
		headroom := b.MaxPosition.Sub(exposure)
		if exposure.LessThan(b.MaxPosition) && headroom.GreaterThan(b.MinOrderSize) {
			return Action{Kind: ActionBuy, Amount: decimal.Min(b.OrderSize, headroom)}
		}
		return Action{Kind: ActionNone}
	}

	if signalValue < b.ExitThreshold {
		reducible := exposure.Sub(b.MinPosition)
		if exposure.GreaterThan(b.MinPosition) && reducible.GreaterThan(b.MinOrderSize) {
			return Action{Kind: ActionSell, Amount: decimal.Min(b.OrderSize, reducible)}
		}
		return Action{Kind: ActionNone}
	}

	return Action{Kind: ActionNone}
}
