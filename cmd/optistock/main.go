// cmd/optistock/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/optistock/internal/cache"
	"github.com/andresuchdata/optistock/internal/config"
	"github.com/andresuchdata/optistock/internal/domain"
	"github.com/andresuchdata/optistock/internal/repository"
	"github.com/andresuchdata/optistock/internal/repository/postgres"
	"github.com/andresuchdata/optistock/internal/service"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

// planner opens the database and assembles the planning service. The caller
// must invoke the returned cleanup.
func planner(c *cli.Context) (*service.ReplenishmentService, repository.DemandRepository, func(), error) {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return nil, nil, nil, err
	}

	cfg := config.Load()
	demand := postgres.NewDemandRepository(db)
	svc := service.NewReplenishmentService(
		demand,
		postgres.NewLeadTimeRepository(db),
		postgres.NewStockRepository(db),
		cache.NewClassificationCache(cfg.Cache),
		cfg.Planning,
	)
	return svc, demand, func() { _ = db.Close() }, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runPlan(c *cli.Context) error {
	svc, demand, cleanup, err := planner(c)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := service.PlanOptions{
		ServiceLevel: c.Float64("service-level"),
		LotSize:      c.Float64("lot-size"),
	}

	skus := c.StringSlice("sku")
	if len(skus) == 0 {
		skus, err = demand.ListSKUs(c.Context)
		if err != nil {
			return err
		}
	}

	recs := make([]domain.Recommendation, 0, len(skus))
	for _, sku := range skus {
		rec, err := svc.PlanSKU(c.Context, sku, c.String("location"), opts)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	return printJSON(recs)
}

func runClassify(c *cli.Context) error {
	svc, _, cleanup, err := planner(c)
	if err != nil {
		return err
	}
	defer cleanup()

	if c.Bool("refresh") {
		if err := svc.InvalidateClassification(c.Context); err != nil {
			return err
		}
	}

	classes, err := svc.Classify(c.Context)
	if err != nil {
		return err
	}
	return printJSON(classes)
}

func runSimulate(c *cli.Context) error {
	svc, _, cleanup, err := planner(c)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := service.SimOptions{
		Runs:             c.Int("runs"),
		DemandVolatility: c.Float64("volatility"),
		LeadTimeDays:     c.Int("lead-time-days"),
		Seed:             c.Int64("seed"),
	}

	sku := c.String("sku")
	location := c.String("location")

	if c.Bool("stress") {
		outcome, err := svc.SimulateStress(c.Context, sku, location, opts)
		if err != nil {
			return err
		}
		return printJSON(outcome)
	}

	var target *float64
	if c.IsSet("target") {
		t := c.Float64("target")
		target = &t
	}
	outcome, err := svc.SimulatePolicy(
		c.Context, sku, location,
		c.Float64("reorder-point"), c.Float64("order-qty"), target, opts,
	)
	if err != nil {
		return err
	}
	return printJSON(outcome)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "optistock",
		Usage: "Replenishment planning from the command line",
		Commands: []*cli.Command{
			{
				Name:  "plan",
				Usage: "Build replenishment recommendations (all SKUs unless --sku is given)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringSliceFlag{Name: "sku", Usage: "SKU to plan; repeatable"},
					&cli.StringFlag{Name: "location", Usage: "Restrict to one location"},
					&cli.Float64Flag{Name: "service-level", Usage: "Override the configured service level"},
					&cli.Float64Flag{Name: "lot-size", Usage: "Round order quantities to this lot multiple"},
				},
				Action: runPlan,
			},
			{
				Name:  "classify",
				Usage: "Segment the SKU population by ABC/XYZ",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.BoolFlag{Name: "refresh", Usage: "Drop cached snapshots before classifying"},
				},
				Action: runClassify,
			},
			{
				Name:  "simulate",
				Usage: "Monte Carlo simulation of a SKU's forecast",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{Name: "sku", Usage: "SKU to simulate", Required: true},
					&cli.StringFlag{Name: "location", Usage: "Restrict to one location"},
					&cli.BoolFlag{Name: "stress", Usage: "Run the no-replenishment stress test instead of the policy simulation"},
					&cli.Float64Flag{Name: "reorder-point", Usage: "Reorder point to simulate (0 uses the recommended policy)"},
					&cli.Float64Flag{Name: "order-qty", Usage: "Order quantity to simulate (0 uses the recommended policy)"},
					&cli.Float64Flag{Name: "target", Usage: "Service level target to check the outcome against"},
					&cli.IntFlag{Name: "runs", Usage: "Number of Monte Carlo runs"},
					&cli.Float64Flag{Name: "volatility", Usage: "Daily demand volatility as a fraction"},
					&cli.IntFlag{Name: "lead-time-days", Usage: "Replenishment lead time in days"},
					&cli.Int64Flag{Name: "seed", Usage: "Random seed for reproducible runs"},
				},
				Action: runSimulate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
