package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/optistock/internal/domain"
)

func record(sku string, qty, value float64) domain.DemandRecord {
	return domain.DemandRecord{SKU: sku, Qty: qty, Value: value}
}

func TestClassifyABCPartition(t *testing.T) {
	// One dominant SKU, a mid-tier and a long tail.
	records := []domain.DemandRecord{
		record("HERO", 10, 7000),
		record("MID", 10, 2000),
		record("TAIL-1", 10, 600),
		record("TAIL-2", 10, 250),
		record("TAIL-3", 10, 150),
	}

	classes := Classify(records)
	require.Len(t, classes, 5)

	bySKU := map[string]domain.SKUClass{}
	totalShare := 0.0
	for _, c := range classes {
		bySKU[c.SKU] = c
		totalShare += c.Share
	}

	assert.InDelta(t, 1.0, totalShare, 1e-9)
	assert.Equal(t, "A", bySKU["HERO"].ABC)  // cum 0.70
	assert.Equal(t, "B", bySKU["MID"].ABC)   // cum 0.90
	assert.Equal(t, "C", bySKU["TAIL-1"].ABC)
	assert.Equal(t, "C", bySKU["TAIL-2"].ABC)
	assert.Equal(t, "C", bySKU["TAIL-3"].ABC)

	// Output is sorted descending by value and cumulative share is monotone.
	assert.Equal(t, "HERO", classes[0].SKU)
	for i := 1; i < len(classes); i++ {
		assert.GreaterOrEqual(t, classes[i].CumShare, classes[i-1].CumShare)
	}
	assert.InDelta(t, 1.0, classes[len(classes)-1].CumShare, 1e-9)
}

func TestClassifyXYZTiers(t *testing.T) {
	records := []domain.DemandRecord{}
	// Steady demand: CV near zero.
	for _, q := range []float64{100, 101, 99, 100, 100} {
		records = append(records, record("STEADY", q, q))
	}
	// Erratic demand: CV above 1.
	for _, q := range []float64{1, 0, 90, 2, 0} {
		records = append(records, record("ERRATIC", q, q))
	}

	classes := Classify(records)
	bySKU := map[string]domain.SKUClass{}
	for _, c := range classes {
		bySKU[c.SKU] = c
	}

	assert.Equal(t, "X", bySKU["STEADY"].XYZ)
	assert.Equal(t, "Z", bySKU["ERRATIC"].XYZ)
}

func TestClassifyIsPopulationRelative(t *testing.T) {
	base := []domain.DemandRecord{
		record("ALPHA", 10, 800),
		record("BETA", 10, 200),
	}
	before := Classify(base)
	require.Equal(t, "A", before[0].ABC)
	assert.Equal(t, "ALPHA", before[0].SKU)

	// Adding a much bigger SKU pushes ALPHA's cumulative share past the A
	// boundary: its tier depends on the rest of the population.
	grown := append(base, record("GIANT", 10, 4000))
	after := Classify(grown)
	bySKU := map[string]domain.SKUClass{}
	for _, c := range after {
		bySKU[c.SKU] = c
	}
	assert.Equal(t, "A", bySKU["GIANT"].ABC)
	assert.NotEqual(t, "A", bySKU["ALPHA"].ABC)
}

func TestClassifyZeroDemandSKU(t *testing.T) {
	records := []domain.DemandRecord{
		record("DEAD", 0, 0),
		record("DEAD", 0, 0),
		record("LIVE", 10, 100),
	}

	classes := Classify(records)
	bySKU := map[string]domain.SKUClass{}
	for _, c := range classes {
		bySKU[c.SKU] = c
	}

	// The floored mean keeps the CV finite; a dead SKU is simply constant.
	assert.False(t, bySKU["DEAD"].CV != bySKU["DEAD"].CV, "CV must not be NaN")
	assert.Equal(t, "C", bySKU["DEAD"].ABC)
	assert.Equal(t, "X", bySKU["DEAD"].XYZ)
}

func TestClassifyEmptyPopulation(t *testing.T) {
	assert.Nil(t, Classify(nil))
}
