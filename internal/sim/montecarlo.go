// internal/sim/montecarlo.go
package sim

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/optistock/internal/domain"
)

// StressConfig drives the no-replenishment Monte Carlo stress test.
type StressConfig struct {
	DailyForecast    []float64
	CurrentStock     float64
	Runs             int
	DemandVolatility float64
	Seed             int64 // 0 means a fresh time-based seed
	Workers          int   // 0 means GOMAXPROCS
}

// PolicyConfig drives the policy-aware Monte Carlo simulation.
type PolicyConfig struct {
	DailyForecast      []float64
	CurrentStock       float64
	ReorderPoint       float64
	OrderQty           float64
	LeadTimeDays       int
	Runs               int
	DemandVolatility   float64
	ServiceLevelTarget *float64
	Seed               int64
	Workers            int
}

// noisyDemand draws one day's demand: the forecast value plus Gaussian noise
// scaled by volatility, floored at zero.
func noisyDemand(rng *rand.Rand, v, volatility float64) float64 {
	if volatility <= 0 || v == 0 {
		return math.Max(v, 0)
	}
	return math.Max(v+rng.NormFloat64()*volatility*v, 0)
}

// StressTest runs the "do nothing" Monte Carlo: stock is drawn down by noisy
// demand with no replenishment, and a run stocks out only if it ends the
// horizon below zero. Intra-run crossings are not tracked; this is the
// coarse worst-case, not a service metric.
//
// Runs are independent, so they are fanned out over a worker pool; each
// worker owns its RNG stream and partial aggregates, merged afterwards.
func StressTest(ctx context.Context, cfg StressConfig) domain.SimulationOutcome {
	if cfg.Runs <= 0 {
		return domain.SimulationOutcome{}
	}

	type partial struct {
		stockouts int
		sum       float64
		min, max  float64
	}

	workers, seed := poolParams(cfg.Workers, cfg.Seed, cfg.Runs)
	parts := make([]partial, workers)

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		runs := runsForWorker(cfg.Runs, workers, w)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(w)*7919))
			p := partial{min: math.Inf(1), max: math.Inf(-1)}
			for r := 0; r < runs; r++ {
				stock := cfg.CurrentStock
				for _, v := range cfg.DailyForecast {
					stock -= noisyDemand(rng, v, cfg.DemandVolatility)
				}
				p.sum += stock
				p.min = math.Min(p.min, stock)
				p.max = math.Max(p.max, stock)
				if stock < 0 {
					p.stockouts++
				}
			}
			parts[w] = p
			return nil
		})
	}
	_ = g.Wait()

	out := domain.SimulationOutcome{
		Runs:           cfg.Runs,
		MinEndingStock: math.Inf(1),
		MaxEndingStock: math.Inf(-1),
	}
	stockouts := 0
	sum := 0.0
	for _, p := range parts {
		stockouts += p.stockouts
		sum += p.sum
		out.MinEndingStock = math.Min(out.MinEndingStock, p.min)
		out.MaxEndingStock = math.Max(out.MaxEndingStock, p.max)
	}
	out.StockoutProbability = float64(stockouts) / float64(cfg.Runs)
	out.AvgEndingStock = sum / float64(cfg.Runs)
	return out
}

type delivery struct {
	day int
	qty float64
}

// PolicySim runs the policy-aware simulation. Each day, deliveries due today
// arrive first, then a replenishment order is placed if stock sits below the
// reorder point, then noisy demand is applied; every day ending below zero
// counts as one stockout-day. A run is stockout-free only if it never dipped
// below zero across the whole horizon.
func PolicySim(ctx context.Context, cfg PolicyConfig) domain.PolicyOutcome {
	if cfg.Runs <= 0 {
		return domain.PolicyOutcome{}
	}

	type partial struct {
		stockoutRuns int
		stockoutDays int
		stockoutFree int
	}

	workers, seed := poolParams(cfg.Workers, cfg.Seed, cfg.Runs)
	parts := make([]partial, workers)

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		runs := runsForWorker(cfg.Runs, workers, w)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(w)*7919))
			var p partial
			for r := 0; r < runs; r++ {
				stock := cfg.CurrentStock
				var queue []delivery
				days := 0

				for day, v := range cfg.DailyForecast {
					for len(queue) > 0 && queue[0].day == day {
						stock += queue[0].qty
						queue = queue[1:]
					}
					if stock < cfg.ReorderPoint && cfg.OrderQty > 0 {
						queue = append(queue, delivery{day: day + cfg.LeadTimeDays, qty: cfg.OrderQty})
					}
					stock -= noisyDemand(rng, v, cfg.DemandVolatility)
					if stock < 0 {
						days++
					}
				}

				p.stockoutDays += days
				if days > 0 {
					p.stockoutRuns++
				} else {
					p.stockoutFree++
				}
			}
			parts[w] = p
			return nil
		})
	}
	_ = g.Wait()

	stockoutRuns, stockoutDays, freeRuns := 0, 0, 0
	for _, p := range parts {
		stockoutRuns += p.stockoutRuns
		stockoutDays += p.stockoutDays
		freeRuns += p.stockoutFree
	}

	out := domain.PolicyOutcome{
		ProbAnyStockout:    float64(stockoutRuns) / float64(cfg.Runs),
		AvgStockoutsPerRun: float64(stockoutDays) / float64(cfg.Runs),
		Runs:               cfg.Runs,
	}
	if cfg.ServiceLevelTarget != nil {
		achieved := float64(freeRuns) / float64(cfg.Runs)
		out.ServiceLevelAchieved = &achieved
		out.ServiceLevelTarget = cfg.ServiceLevelTarget
	}
	return out
}

// RunScenarios executes the policy simulation once per named scenario,
// returning one outcome per scenario in input order.
func RunScenarios(ctx context.Context, base PolicyConfig, scenarios []domain.Scenario) []domain.ScenarioOutcome {
	out := make([]domain.ScenarioOutcome, 0, len(scenarios))
	for _, sc := range scenarios {
		cfg := base
		cfg.ReorderPoint = sc.ReorderPoint
		cfg.OrderQty = sc.OrderQty
		cfg.DemandVolatility = sc.DemandVolatility
		out = append(out, domain.ScenarioOutcome{
			Scenario: sc,
			Outcome:  PolicySim(ctx, cfg),
		})
	}
	return out
}

func poolParams(workers int, seed int64, runs int) (int, int64) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > runs {
		workers = runs
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return workers, seed
}

// runsForWorker splits runs as evenly as possible across the pool.
func runsForWorker(total, workers, idx int) int {
	base := total / workers
	if idx < total%workers {
		base++
	}
	return base
}
