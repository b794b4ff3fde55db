package processing

import (
	"reflect"
	"testing"

	"github.com/dyike/NexusGo/internal/models"
)

func TestPositionCeiling(t *testing.T) {
	cases := map[string]float64{
		"HIGH":     8,
		"high":     8,
		" Low ":    25,
		"MODERATE": 15,
		"weird":    15,
		"":         15,
	}
	for rating, want := range cases {
		if got := PositionCeiling(rating); got != want {
			t.Errorf("PositionCeiling(%q) = %v, want %v", rating, got, want)
		}
	}
}

func TestGateClampsOversizedBuy(t *testing.T) {
	d := &models.Decision{
		Action:          models.ActionBuy,
		EntryPrice:      models.FloatPtr(100),
		PositionSizePct: 50,
	}
	out := ApplyRiskGate(d, "MODERATE")
	if out.PositionSizePct != 15 {
		t.Errorf("size = %v, want 15", out.PositionSizePct)
	}
	if out.StopLoss == nil || *out.StopLoss != 92 {
		t.Errorf("stop = %v, want 92", out.StopLoss)
	}
	if out.TakeProfit == nil || *out.TakeProfit != 112 {
		t.Errorf("target = %v, want 112", out.TakeProfit)
	}
}

func TestGateAssignsCeilingWhenSizeMissing(t *testing.T) {
	d := &models.Decision{Action: models.ActionBuy, PositionSizePct: 0}
	out := ApplyRiskGate(d, "LOW")
	if out.PositionSizePct != 25 {
		t.Errorf("size = %v, want 25", out.PositionSizePct)
	}
}

func TestGateKeepsSizeUnderCeiling(t *testing.T) {
	d := &models.Decision{Action: models.ActionBuy, PositionSizePct: 5}
	out := ApplyRiskGate(d, "HIGH")
	if out.PositionSizePct != 5 {
		t.Errorf("size = %v, want 5", out.PositionSizePct)
	}
}

func TestGateRepairsSellLevels(t *testing.T) {
	d := &models.Decision{
		Action:          models.ActionSell,
		EntryPrice:      models.FloatPtr(50),
		StopLoss:        models.FloatPtr(40), // wrong side for a short
		PositionSizePct: 30,
	}
	out := ApplyRiskGate(d, "HIGH")
	if out.PositionSizePct != 8 {
		t.Errorf("size = %v, want 8", out.PositionSizePct)
	}
	if out.StopLoss == nil || *out.StopLoss != 54 {
		t.Errorf("stop = %v, want 54", out.StopLoss)
	}
	if out.TakeProfit == nil || *out.TakeProfit != 44 {
		t.Errorf("target = %v, want 44", out.TakeProfit)
	}
}

func TestGateNormalizesHold(t *testing.T) {
	d := &models.Decision{
		Action:          models.ActionHold,
		EntryPrice:      models.FloatPtr(100),
		TakeProfit:      models.FloatPtr(110),
		StopLoss:        models.FloatPtr(95),
		PositionSizePct: 20,
	}
	out := ApplyRiskGate(d, "LOW")
	if out.EntryPrice != nil || out.TakeProfit != nil || out.StopLoss != nil {
		t.Errorf("HOLD must null all prices, got %+v", out)
	}
	if out.PositionSizePct != 0 {
		t.Errorf("size = %v, want 0", out.PositionSizePct)
	}
}

func TestGateIsIdempotent(t *testing.T) {
	for _, d := range []*models.Decision{
		{Action: models.ActionBuy, EntryPrice: models.FloatPtr(123.45), PositionSizePct: 99},
		{Action: models.ActionSell, EntryPrice: models.FloatPtr(87.6), PositionSizePct: 3},
		{Action: models.ActionHold, EntryPrice: models.FloatPtr(10), PositionSizePct: 40},
	} {
		for _, rating := range []string{"HIGH", "MODERATE", "LOW"} {
			once := ApplyRiskGate(d, rating)
			twice := ApplyRiskGate(once, rating)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("gate not idempotent for %s/%s: %+v vs %+v", d.Action, rating, once, twice)
			}
		}
	}
}

func TestGateDoesNotMutateInput(t *testing.T) {
	entry := 100.0
	d := &models.Decision{
		Action:          models.ActionBuy,
		EntryPrice:      &entry,
		PositionSizePct: 60,
	}
	_ = ApplyRiskGate(d, "HIGH")
	if d.PositionSizePct != 60 || d.StopLoss != nil {
		t.Errorf("input mutated: %+v", d)
	}
}

func TestGateRoundsRepairedPricesToCents(t *testing.T) {
	d := &models.Decision{
		Action:          models.ActionBuy,
		EntryPrice:      models.FloatPtr(33.33),
		PositionSizePct: 5,
	}
	out := ApplyRiskGate(d, "MODERATE")
	if out.StopLoss == nil || *out.StopLoss != 30.66 {
		t.Errorf("stop = %v, want 30.66", out.StopLoss)
	}
	if out.TakeProfit == nil || *out.TakeProfit != 37.33 {
		t.Errorf("target = %v, want 37.33", out.TakeProfit)
	}
}
