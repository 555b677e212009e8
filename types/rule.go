package types

import "github.com/shopspring/decimal"

type RuleKind string

const (
	RuleBuyBelow  RuleKind = "buy_below"
	RuleSellAbove RuleKind = "sell_above"
)

// Rule is a stateless trigger evaluated independently against every tick.
// There is no debounce: a rule fires on every tick its condition holds.
type Rule struct {
	Symbol    string          `json:"symbol"`
	Kind      RuleKind        `json:"kind"`
	Threshold decimal.Decimal `json:"threshold"`
	Qty       decimal.Decimal `json:"qty"`
}

func NewBuyBelow(symbol string, threshold, qty decimal.Decimal) Rule {
	return Rule{Symbol: symbol, Kind: RuleBuyBelow, Threshold: threshold, Qty: qty}
}

func NewSellAbove(symbol string, threshold, qty decimal.Decimal) Rule {
	return Rule{Symbol: symbol, Kind: RuleSellAbove, Threshold: threshold, Qty: qty}
}

// Matches reports whether the rule fires at the given price. Both kinds use
// strict inequality: a price exactly at the threshold never fires.
func (r Rule) Matches(price decimal.Decimal) bool {
	switch r.Kind {
	case RuleBuyBelow:
		return price.LessThan(r.Threshold)
	case RuleSellAbove:
		return price.GreaterThan(r.Threshold)
	default:
		return false
	}
}

// Order side implied by the rule kind.
func (r Rule) Side() Side {
	if r.Kind == RuleSellAbove {
		return SideTypeSell
	}
	return SideTypeBuy
}
