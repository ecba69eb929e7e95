package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/optistock/internal/domain"
)

func TestSpreadValuesPreservesTotals(t *testing.T) {
	weekly := []float64{70, 140}
	daily := SpreadValues(weekly, 7)

	require.Len(t, daily, 14)
	sum := 0.0
	for _, v := range daily {
		sum += v
	}
	assert.InDelta(t, 210.0, sum, 1e-9)
	assert.InDelta(t, 10.0, daily[0], 1e-9)
	assert.InDelta(t, 20.0, daily[13], 1e-9)
}

func TestSpreadValuesDailyPassesThrough(t *testing.T) {
	daily := []float64{3, 4, 5}
	assert.Equal(t, daily, SpreadValues(daily, 1))
}

func TestSpreadDailyInfersWeeklyGap(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	points := []domain.DemandPoint{
		{Period: start, Qty: 70},
		{Period: start.AddDate(0, 0, 7), Qty: 7},
	}

	daily := SpreadDaily(points)
	require.Len(t, daily, 14)
	assert.InDelta(t, 10.0, daily[0], 1e-9)
	assert.InDelta(t, 1.0, daily[7], 1e-9)
}

func TestStressTestZeroVolatilityIsDeterministic(t *testing.T) {
	cfg := StressConfig{
		DailyForecast:    SpreadValues([]float64{70, 70, 70}, 7), // 210 units over 21 days
		CurrentStock:     100,
		Runs:             200,
		DemandVolatility: 0,
	}

	a := StressTest(context.Background(), cfg)
	b := StressTest(context.Background(), cfg)

	assert.Equal(t, a, b)
	// 100 - 210 < 0 on every run: certain stockout, no variance.
	assert.Equal(t, 1.0, a.StockoutProbability)
	assert.InDelta(t, -110.0, a.AvgEndingStock, 1e-9)
	assert.InDelta(t, a.MinEndingStock, a.MaxEndingStock, 1e-9)
}

func TestStressTestAmpleStockNeverStocksOut(t *testing.T) {
	cfg := StressConfig{
		DailyForecast:    SpreadValues([]float64{70}, 7),
		CurrentStock:     10000,
		Runs:             300,
		DemandVolatility: 0.3,
		Seed:             42,
	}

	out := StressTest(context.Background(), cfg)
	assert.Zero(t, out.StockoutProbability)
	assert.Greater(t, out.MinEndingStock, 0.0)
	assert.GreaterOrEqual(t, out.MaxEndingStock, out.MinEndingStock)
}

func TestStressTestSeededReproducible(t *testing.T) {
	cfg := StressConfig{
		DailyForecast:    SpreadValues([]float64{70, 80, 60}, 7),
		CurrentStock:     180,
		Runs:             500,
		DemandVolatility: 0.25,
		Seed:             7,
		Workers:          4,
	}

	a := StressTest(context.Background(), cfg)
	b := StressTest(context.Background(), cfg)
	assert.Equal(t, a, b)
}

func TestPolicySimHealthyPolicyAvoidsStockouts(t *testing.T) {
	// Demand 10/day for 8 weeks, ROP comfortably above lead-time demand and
	// a refill that always lands before the buffer burns down.
	target := 0.95
	cfg := PolicyConfig{
		DailyForecast:      SpreadValues([]float64{70, 70, 70, 70, 70, 70, 70, 70}, 7),
		CurrentStock:       300,
		ReorderPoint:       200, // lead-time demand is 50
		OrderQty:           400,
		LeadTimeDays:       5,
		Runs:               400,
		DemandVolatility:   0.05,
		ServiceLevelTarget: &target,
		Seed:               11,
	}

	out := PolicySim(context.Background(), cfg)

	assert.InDelta(t, 0.0, out.ProbAnyStockout, 0.02)
	require.NotNil(t, out.ServiceLevelAchieved)
	assert.GreaterOrEqual(t, *out.ServiceLevelAchieved, target)
	assert.Equal(t, &target, out.ServiceLevelTarget)
}

func TestPolicySimNoOrdersStarves(t *testing.T) {
	cfg := PolicyConfig{
		DailyForecast:    SpreadValues([]float64{70, 70, 70, 70}, 7),
		CurrentStock:     100,
		ReorderPoint:     50,
		OrderQty:         0, // never replenishes
		LeadTimeDays:     5,
		Runs:             100,
		DemandVolatility: 0,
		Seed:             3,
	}

	out := PolicySim(context.Background(), cfg)

	// 280 units of demand against 100 in stock: every run stocks out, and
	// stock goes negative on day 11 of 28.
	assert.Equal(t, 1.0, out.ProbAnyStockout)
	assert.InDelta(t, 18.0, out.AvgStockoutsPerRun, 1e-9)
}

func TestPolicySimSeededReproducible(t *testing.T) {
	cfg := PolicyConfig{
		DailyForecast:    SpreadValues([]float64{70, 70, 70, 70}, 7),
		CurrentStock:     150,
		ReorderPoint:     120,
		OrderQty:         150,
		LeadTimeDays:     6,
		Runs:             300,
		DemandVolatility: 0.2,
		Seed:             99,
		Workers:          3,
	}

	a := PolicySim(context.Background(), cfg)
	b := PolicySim(context.Background(), cfg)
	assert.Equal(t, a, b)
}

func TestRunScenariosOneOutcomePerScenarioInOrder(t *testing.T) {
	base := PolicyConfig{
		DailyForecast: SpreadValues([]float64{70, 70, 70, 70}, 7),
		CurrentStock:  200,
		LeadTimeDays:  5,
		Runs:          100,
		Seed:          5,
	}
	scenarios := []domain.Scenario{
		{Name: "aggressive", ReorderPoint: 60, OrderQty: 100, DemandVolatility: 0.1},
		{Name: "conservative", ReorderPoint: 150, OrderQty: 300, DemandVolatility: 0.1},
	}

	outcomes := RunScenarios(context.Background(), base, scenarios)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "aggressive", outcomes[0].Scenario.Name)
	assert.Equal(t, "conservative", outcomes[1].Scenario.Name)
	// A higher reorder point with a bigger refill cannot stock out more often.
	assert.LessOrEqual(t, outcomes[1].Outcome.ProbAnyStockout, outcomes[0].Outcome.ProbAnyStockout)
}
