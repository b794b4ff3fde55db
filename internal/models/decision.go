package models

import "fmt"

// Action is a directional trading decision.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
	// ActionUnknown marks a recommendation that was never produced, e.g.
	// metadata fields before their step has run.
	ActionUnknown Action = ""
)

// Valid reports whether a is one of the three decision literals.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// Decision is the structured output of a run. The JSON keys are the wire
// contract; price fields are null for HOLD and may be null for BUY/SELL when
// the model gave no level.
type Decision struct {
	Action          Action   `json:"action"`
	EntryPrice      *float64 `json:"entry_price"`
	TakeProfit      *float64 `json:"take_profit"`
	StopLoss        *float64 `json:"stop_loss"`
	PositionSizePct float64  `json:"position_size_pct"`
	Rationale       string   `json:"rationale"`
}

// Validate checks the schema constraints a parsed decision must satisfy.
func (d *Decision) Validate() error {
	if !d.Action.Valid() {
		return fmt.Errorf("invalid action %q: must be BUY, SELL or HOLD", d.Action)
	}
	if d.PositionSizePct < 0 || d.PositionSizePct > 100 {
		return fmt.Errorf("position_size_pct %.2f outside [0,100]", d.PositionSizePct)
	}
	return nil
}

// Clone returns a deep copy of the decision.
func (d *Decision) Clone() *Decision {
	out := *d
	out.EntryPrice = copyFloat(d.EntryPrice)
	out.TakeProfit = copyFloat(d.TakeProfit)
	out.StopLoss = copyFloat(d.StopLoss)
	return &out
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// FloatPtr is a convenience for building decisions.
func FloatPtr(f float64) *float64 { return &f }
