// internal/service/replenishment_service.go
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/optistock/internal/cache"
	"github.com/andresuchdata/optistock/internal/classify"
	"github.com/andresuchdata/optistock/internal/config"
	"github.com/andresuchdata/optistock/internal/domain"
	"github.com/andresuchdata/optistock/internal/forecast"
	"github.com/andresuchdata/optistock/internal/policy"
	"github.com/andresuchdata/optistock/internal/repository"
	"github.com/andresuchdata/optistock/internal/sim"
)

// ReplenishmentService orchestrates the planning pipeline: demand series ->
// backtest -> forecast -> policy -> recommendation, plus classification,
// cost optimization and simulation. All pipeline state travels through
// explicit values; the service itself holds only its collaborators.
type ReplenishmentService struct {
	demand   repository.DemandRepository
	leadTime repository.LeadTimeRepository
	stock    repository.StockRepository
	cache    cache.ClassificationCache
	planning config.PlanningConfig
}

func NewReplenishmentService(
	demand repository.DemandRepository,
	leadTime repository.LeadTimeRepository,
	stock repository.StockRepository,
	cacheImpl cache.ClassificationCache,
	planning config.PlanningConfig,
) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopClassificationCache()
	}
	return &ReplenishmentService{
		demand:   demand,
		leadTime: leadTime,
		stock:    stock,
		cache:    cacheImpl,
		planning: planning,
	}
}

// PlanOptions override the configured planning defaults per request. Zero
// values mean "use the default".
type PlanOptions struct {
	Freq         string
	Horizon      int
	Method       string // empty lets the backtester pick
	ServiceLevel float64
	HoldingRate  float64
	OrderingCost float64
	UnitCost     float64
	LotSize      float64
	MaxStorage   *float64
}

// ForecastSKU builds the forecast for one SKU, picking the algorithm by
// rolling backtest unless the caller pinned one. Insufficient data comes back
// as a status, never an exception: the pipeline always yields a structurally
// valid result.
func (s *ReplenishmentService) ForecastSKU(ctx context.Context, sku, location string, opts PlanOptions) (domain.ForecastResult, error) {
	freq := opts.Freq
	if freq == "" {
		freq = "W"
	}
	horizon := opts.Horizon
	if horizon <= 0 {
		horizon = s.planning.ForecastHorizon
	}

	series, err := s.demand.GetSeries(ctx, sku, location, freq)
	if err != nil {
		return domain.ForecastResult{}, fmt.Errorf("forecast %s: %w", sku, err)
	}

	hist := series.Quantities()
	if len(hist) == 0 {
		return domain.ForecastResult{
			SKU:      sku,
			Location: location,
			Status:   "empty",
			Reason:   "no demand history for SKU/location",
			Freq:     freq,
		}, nil
	}

	report := forecast.RollingBacktest(ctx, hist, s.planning.BacktestHorizon, s.planning.BacktestWindow, nil)
	algo := opts.Method
	if algo == "" {
		algo = report.BestAlgorithm
	}
	if algo == "" {
		algo = forecast.MethodSMA // series too short to backtest; the ladder still degrades safely
	}

	fc := forecast.Forecast(algo, hist, horizon)

	result := domain.ForecastResult{
		SKU:        sku,
		Location:   location,
		Algorithm:  algo,
		Status:     "ok",
		History:    hist,
		Forecast:   fc,
		Freq:       freq,
		HistoryLen: len(hist),
	}
	if score, ok := report.Metrics[algo]; ok && score.MAPE != nil {
		result.LastMAPE = score.MAPE
	}
	return result, nil
}

// PlanSKU produces the full replenishment recommendation for one SKU.
func (s *ReplenishmentService) PlanSKU(ctx context.Context, sku, location string, opts PlanOptions) (domain.Recommendation, error) {
	fr, err := s.ForecastSKU(ctx, sku, location, opts)
	if err != nil {
		return domain.Recommendation{}, err
	}
	if fr.Status != "ok" {
		return domain.Recommendation{
			SKU:      sku,
			Location: location,
			Status:   "no_forecast",
			Reason:   fr.Reason,
		}, nil
	}

	currentStock, err := s.stock.GetCurrentStock(ctx, sku, location)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("plan %s: %w", sku, err)
	}
	profile, err := s.leadTime.GetProfile(ctx, sku)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("plan %s: %w", sku, err)
	}

	leadMean := profile.MeanDays
	if leadMean <= 0 {
		leadMean = s.planning.LeadTimeDays
	}

	weeklyMean, weeklyStd := weeklyStats(fr.Forecast, periodDays(fr.Freq))
	factor := policy.VolatilityFactor(fr.HistoryLen, fr.LastMAPE)

	in := policy.Input{
		WeeklyMean:       weeklyMean,
		WeeklyStd:        weeklyStd,
		LeadMeanDays:     leadMean,
		LeadStdDays:      profile.StdDays,
		ServiceLevel:     orDefault(opts.ServiceLevel, s.planning.ServiceLevel),
		HoldingRate:      orDefault(opts.HoldingRate, s.planning.HoldingRate),
		OrderingCost:     orDefault(opts.OrderingCost, s.planning.OrderingCost),
		UnitCost:         orDefault(opts.UnitCost, s.planning.UnitCost),
		MinOrderQty:      profile.MinOrderQty,
		LotSize:          opts.LotSize,
		MaxStorage:       opts.MaxStorage,
		CurrentStock:     currentStock,
		VolatilityFactor: factor,
	}
	pol := policy.Calc(in)

	dailyMean := weeklyMean / 7.0
	dailyStd := weeklyStd / math.Sqrt(7.0)

	// Order only when stock has fallen to the reorder point; enough to clear
	// the ROP again, or a full economic lot, whichever is larger.
	suggested := 0.0
	if currentStock < pol.ReorderPoint {
		suggested = policy.ConstrainOrder(
			math.Max(pol.EOQ, pol.ReorderPoint-currentStock),
			currentStock, profile.MinOrderQty, opts.LotSize, opts.MaxStorage,
		)
	}

	// Days the current stock covers; a dead SKU covers nothing and risks
	// nothing, and infinities must not escape into results.
	daysOfCover := 0.0
	stockoutRisk := 0.0
	if dailyMean > 0 {
		daysOfCover = currentStock / dailyMean
		if daysOfCover < leadMean && leadMean > 0 {
			stockoutRisk = math.Min(1.0, (leadMean-daysOfCover)/leadMean)
		}
	}

	return domain.Recommendation{
		SKU:              sku,
		Location:         location,
		Status:           "ok",
		Algorithm:        fr.Algorithm,
		DailyDemandEst:   dailyMean,
		DailyDemandStd:   dailyStd,
		VolatilityFactor: factor,
		Policy:           pol,
		CurrentStock:     currentStock,
		SuggestedOrder:   suggested,
		ServiceLevel:     in.ServiceLevel,
		LeadTimeDays:     leadMean,
		AnnualDemandEst:  weeklyMean * 52.0,
		DaysOfCover:      daysOfCover,
		StockoutRisk:     stockoutRisk,
		Constraints: domain.Constraints{
			MinOrderQty:   profile.MinOrderQty,
			LotSize:       opts.LotSize,
			MaxStorageQty: opts.MaxStorage,
		},
	}, nil
}

// Classify segments the whole SKU population, serving a cached snapshot when
// the population has not changed.
func (s *ReplenishmentService) Classify(ctx context.Context) ([]domain.SKUClass, error) {
	records, err := s.demand.ListDemandRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	fp := fingerprint(records)
	if classes, ok, err := s.cache.Get(ctx, fp); err == nil && ok {
		return classes, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("classification cache get failed")
	}

	classes := classify.Classify(records)
	if err := s.cache.Set(ctx, fp, classes); err != nil {
		log.Warn().Err(err).Msg("classification cache set failed")
	}
	return classes, nil
}

// RecordStock stores a fresh on-hand observation, making it the current stock
// for subsequent planning calls.
func (s *ReplenishmentService) RecordStock(ctx context.Context, sku, location string, qty float64) error {
	if err := s.stock.RecordStock(ctx, sku, location, qty); err != nil {
		return fmt.Errorf("record stock %s: %w", sku, err)
	}
	return nil
}

// InvalidateClassification drops any cached classification snapshots, forcing
// the next Classify call to recompute.
func (s *ReplenishmentService) InvalidateClassification(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// Optimize searches the service-level grid for the cheapest policy of a SKU,
// using weekly history statistics as the demand model.
func (s *ReplenishmentService) Optimize(ctx context.Context, sku, location string, penaltyPerUnit float64, opts PlanOptions) (domain.CostBreakdown, []domain.CostBreakdown, error) {
	series, err := s.demand.GetSeries(ctx, sku, location, "W")
	if err != nil {
		return domain.CostBreakdown{}, nil, fmt.Errorf("optimize %s: %w", sku, err)
	}
	profile, err := s.leadTime.GetProfile(ctx, sku)
	if err != nil {
		return domain.CostBreakdown{}, nil, fmt.Errorf("optimize %s: %w", sku, err)
	}

	hist := series.Quantities()
	mean, std := meanStd(hist)

	leadMean := profile.MeanDays
	if leadMean <= 0 {
		leadMean = s.planning.LeadTimeDays
	}

	best, grid := policy.OptimizeServiceLevel(policy.OptimizerInput{
		WeeklyMean:     mean,
		WeeklyStd:      std,
		LeadMeanDays:   leadMean,
		LeadStdDays:    profile.StdDays,
		UnitCost:       orDefault(opts.UnitCost, s.planning.UnitCost),
		MinOrderQty:    profile.MinOrderQty,
		HoldingRate:    orDefault(opts.HoldingRate, s.planning.HoldingRate),
		OrderingCost:   orDefault(opts.OrderingCost, s.planning.OrderingCost),
		PenaltyPerUnit: orDefault(penaltyPerUnit, s.planning.StockoutPenalty),
		ServiceGrid:    s.planning.ServiceGrid,
	})
	return best, grid, nil
}

// SimOptions configure a simulation request on top of the SKU's forecast.
type SimOptions struct {
	PlanOptions
	Runs             int
	DemandVolatility float64
	LeadTimeDays     int
	Seed             int64
}

// SimulateStress runs the no-replenishment stress test on a SKU's forecast.
func (s *ReplenishmentService) SimulateStress(ctx context.Context, sku, location string, opts SimOptions) (domain.SimulationOutcome, error) {
	daily, stock, err := s.dailyForecast(ctx, sku, location, opts)
	if err != nil {
		return domain.SimulationOutcome{}, err
	}
	return sim.StressTest(ctx, sim.StressConfig{
		DailyForecast:    daily,
		CurrentStock:     stock,
		Runs:             orDefaultInt(opts.Runs, s.planning.SimulationRuns),
		DemandVolatility: orDefault(opts.DemandVolatility, s.planning.DemandVolatility),
		Seed:             opts.Seed,
	}), nil
}

// SimulatePolicy validates a reorder policy against a SKU's forecast. When
// reorderPoint/orderQty are zero the recommended policy is simulated. The
// simulated lead time must be the one the policy was sized for: the SKU's
// profile mean, with the configured default only when no profile exists.
func (s *ReplenishmentService) SimulatePolicy(ctx context.Context, sku, location string, reorderPoint, orderQty float64, target *float64, opts SimOptions) (domain.PolicyOutcome, error) {
	leadTimeDays := opts.LeadTimeDays
	if reorderPoint <= 0 && orderQty <= 0 {
		rec, err := s.PlanSKU(ctx, sku, location, opts.PlanOptions)
		if err != nil {
			return domain.PolicyOutcome{}, err
		}
		reorderPoint = rec.Policy.ReorderPoint
		orderQty = rec.Policy.OrderQty
		if leadTimeDays <= 0 {
			leadTimeDays = int(math.Round(rec.LeadTimeDays))
		}
	}
	if leadTimeDays <= 0 {
		var err error
		leadTimeDays, err = s.resolveLeadDays(ctx, sku)
		if err != nil {
			return domain.PolicyOutcome{}, fmt.Errorf("simulate %s: %w", sku, err)
		}
	}

	daily, stock, err := s.dailyForecast(ctx, sku, location, opts)
	if err != nil {
		return domain.PolicyOutcome{}, err
	}
	return sim.PolicySim(ctx, sim.PolicyConfig{
		DailyForecast:      daily,
		CurrentStock:       stock,
		ReorderPoint:       reorderPoint,
		OrderQty:           orderQty,
		LeadTimeDays:       leadTimeDays,
		Runs:               orDefaultInt(opts.Runs, s.planning.SimulationRuns),
		DemandVolatility:   orDefault(opts.DemandVolatility, s.planning.DemandVolatility),
		ServiceLevelTarget: target,
		Seed:               opts.Seed,
	}), nil
}

// CompareScenarios runs the policy simulation for each named scenario against
// the same forecast and stock position.
func (s *ReplenishmentService) CompareScenarios(ctx context.Context, sku, location string, scenarios []domain.Scenario, opts SimOptions) ([]domain.ScenarioOutcome, error) {
	leadTimeDays := opts.LeadTimeDays
	if leadTimeDays <= 0 {
		var err error
		leadTimeDays, err = s.resolveLeadDays(ctx, sku)
		if err != nil {
			return nil, fmt.Errorf("simulate %s: %w", sku, err)
		}
	}

	daily, stock, err := s.dailyForecast(ctx, sku, location, opts)
	if err != nil {
		return nil, err
	}
	base := sim.PolicyConfig{
		DailyForecast: daily,
		CurrentStock:  stock,
		LeadTimeDays:  leadTimeDays,
		Runs:          orDefaultInt(opts.Runs, s.planning.SimulationRuns),
		Seed:          opts.Seed,
	}
	return sim.RunScenarios(ctx, base, scenarios), nil
}

func (s *ReplenishmentService) dailyForecast(ctx context.Context, sku, location string, opts SimOptions) ([]float64, float64, error) {
	fr, err := s.ForecastSKU(ctx, sku, location, opts.PlanOptions)
	if err != nil {
		return nil, 0, err
	}
	if fr.Status != "ok" {
		return nil, 0, fmt.Errorf("simulate %s: no forecast available (%s)", sku, fr.Reason)
	}
	stock, err := s.stock.GetCurrentStock(ctx, sku, location)
	if err != nil {
		return nil, 0, fmt.Errorf("simulate %s: %w", sku, err)
	}
	return sim.SpreadValues(fr.Forecast, periodDays(fr.Freq)), stock, nil
}

func periodDays(freq string) int {
	switch freq {
	case "D":
		return 1
	case "M":
		return 30
	default:
		return 7
	}
}

// weeklyStats converts per-period forecast statistics to weekly terms.
func weeklyStats(values []float64, days int) (mean, std float64) {
	mean, std = meanStd(values)
	if days == 7 {
		return mean, std
	}
	scale := 7.0 / float64(days)
	return mean * scale, std * math.Sqrt(scale)
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := stat.Mean(values, nil)
	std := 0.0
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	return mean, std
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// resolveLeadDays picks the simulation lead time for a SKU: the profile mean
// when one exists, the configured default otherwise.
func (s *ReplenishmentService) resolveLeadDays(ctx context.Context, sku string) (int, error) {
	profile, err := s.leadTime.GetProfile(ctx, sku)
	if err != nil {
		return 0, err
	}
	if profile.MeanDays > 0 {
		return int(math.Round(profile.MeanDays)), nil
	}
	return int(math.Round(s.planning.LeadTimeDays)), nil
}

// fingerprint hashes the demand population so classification snapshots can be
// cached and invalidated when any SKU's data changes.
func fingerprint(records []domain.DemandRecord) string {
	h := fnv.New64a()
	for _, r := range records {
		fmt.Fprintf(h, "%s|%.6f|%.6f;", r.SKU, r.Qty, r.Value)
	}
	return fmt.Sprintf("%x", h.Sum64())
}
