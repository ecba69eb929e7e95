package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingBacktestPicksNaiveOnConstantSeries(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 50
	}

	report := RollingBacktest(context.Background(), series, 4, 12, nil)

	require.NotEmpty(t, report.BestAlgorithm)
	best := report.Metrics[report.BestAlgorithm]
	require.True(t, best.Defined())
	// Every method predicts 50 exactly on a constant series, so the tie must
	// resolve to the first (simplest) method in ladder order.
	assert.Equal(t, MethodNaive, report.BestAlgorithm)
	assert.Zero(t, *best.RMSE)
}

func TestRollingBacktestTooShortSeriesIsUndefinedNotFatal(t *testing.T) {
	series := []float64{1, 2, 3}

	report := RollingBacktest(context.Background(), series, 4, 12, []string{MethodNaive, MethodSMA})

	assert.Empty(t, report.BestAlgorithm)
	for name, score := range report.Metrics {
		assert.False(t, score.Defined(), "%s should be undefined", name)
		assert.Nil(t, score.MAPE, name)
		assert.Nil(t, score.RMSE, name)
	}
}

func TestRollingBacktestMixedDefinability(t *testing.T) {
	// 10 points: window 4 + horizon 2 leaves origins for everything, but we
	// evaluate one method with an oversized window to force an undefined
	// score next to defined ones.
	series := []float64{5, 7, 6, 8, 7, 9, 8, 10, 9, 11}

	report := RollingBacktest(context.Background(), series, 2, 4, []string{MethodNaive, MethodTrend})
	require.True(t, report.Metrics[MethodNaive].Defined())
	require.True(t, report.Metrics[MethodTrend].Defined())
	assert.NotEmpty(t, report.BestAlgorithm)

	short := RollingBacktest(context.Background(), series[:5], 2, 4, []string{MethodNaive})
	assert.False(t, short.Metrics[MethodNaive].Defined())
	assert.Empty(t, short.BestAlgorithm)
}

func TestRollingBacktestDeterministic(t *testing.T) {
	series := []float64{12, 15, 11, 18, 20, 17, 22, 25, 21, 28, 30, 26, 33, 35, 31, 38, 40, 36, 43, 45}

	a := RollingBacktest(context.Background(), series, 4, 12, nil)
	b := RollingBacktest(context.Background(), series, 4, 12, nil)

	assert.Equal(t, a.BestAlgorithm, b.BestAlgorithm)
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestRollingBacktestPrefersTrendOnTrendingSeries(t *testing.T) {
	series := make([]float64, 24)
	for i := range series {
		series[i] = 10 + 5*float64(i)
	}

	report := RollingBacktest(context.Background(), series, 2, 8, []string{MethodNaive, MethodSMA, MethodTrend})

	// A perfectly linear series is forecast exactly by the trend method.
	assert.Equal(t, MethodTrend, report.BestAlgorithm)
	assert.InDelta(t, 0.0, *report.Metrics[MethodTrend].RMSE, 1e-9)
}
