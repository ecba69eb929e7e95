package config

import (
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Planning PlanningConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled                  bool
	RedisURL                 string
	RedisHost                string
	RedisPort                string
	RedisPassword            string
	RedisDB                  int
	ClassificationTTLSeconds int
}

// PlanningConfig holds the default planning parameters used when a request
// does not override them. Costs are in the caller's currency unit, service
// levels are fractions in (0,1).
type PlanningConfig struct {
	ServiceLevel     float64
	LeadTimeDays     float64
	HoldingRate      float64
	OrderingCost     float64
	UnitCost         float64
	StockoutPenalty  float64
	ForecastHorizon  int
	BacktestWindow   int
	BacktestHorizon  int
	SimulationRuns   int
	DemandVolatility float64
	ServiceGrid      []float64
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "optistock")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_CLASSIFICATION_TTL_SECONDS", 300)
		viper.SetDefault("PLAN_SERVICE_LEVEL", 0.95)
		viper.SetDefault("PLAN_LEAD_TIME_DAYS", 14.0)
		viper.SetDefault("PLAN_HOLDING_RATE", 0.20)
		viper.SetDefault("PLAN_ORDERING_COST", 150.0)
		viper.SetDefault("PLAN_UNIT_COST", 10.0)
		viper.SetDefault("PLAN_STOCKOUT_PENALTY", 25.0)
		viper.SetDefault("PLAN_FORECAST_HORIZON", 8)
		viper.SetDefault("PLAN_BACKTEST_WINDOW", 12)
		viper.SetDefault("PLAN_BACKTEST_HORIZON", 4)
		viper.SetDefault("PLAN_SIMULATION_RUNS", 500)
		viper.SetDefault("PLAN_DEMAND_VOLATILITY", 0.15)
		viper.SetDefault("PLAN_SERVICE_GRID", "0.90,0.92,0.95,0.97,0.98,0.99")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:         viper.GetString("SERVER_PORT"),
				Mode:         viper.GetString("SERVER_MODE"),
				ReadTimeout:  viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout: viper.GetInt("SERVER_WRITE_TIMEOUT"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:                  viper.GetBool("CACHE_ENABLED"),
				RedisURL:                 viper.GetString("REDIS_URL"),
				RedisHost:                viper.GetString("REDIS_HOST"),
				RedisPort:                viper.GetString("REDIS_PORT"),
				RedisPassword:            viper.GetString("REDIS_PASSWORD"),
				RedisDB:                  viper.GetInt("REDIS_DB"),
				ClassificationTTLSeconds: viper.GetInt("CACHE_CLASSIFICATION_TTL_SECONDS"),
			},
			Planning: PlanningConfig{
				ServiceLevel:     viper.GetFloat64("PLAN_SERVICE_LEVEL"),
				LeadTimeDays:     viper.GetFloat64("PLAN_LEAD_TIME_DAYS"),
				HoldingRate:      viper.GetFloat64("PLAN_HOLDING_RATE"),
				OrderingCost:     viper.GetFloat64("PLAN_ORDERING_COST"),
				UnitCost:         viper.GetFloat64("PLAN_UNIT_COST"),
				StockoutPenalty:  viper.GetFloat64("PLAN_STOCKOUT_PENALTY"),
				ForecastHorizon:  viper.GetInt("PLAN_FORECAST_HORIZON"),
				BacktestWindow:   viper.GetInt("PLAN_BACKTEST_WINDOW"),
				BacktestHorizon:  viper.GetInt("PLAN_BACKTEST_HORIZON"),
				SimulationRuns:   viper.GetInt("PLAN_SIMULATION_RUNS"),
				DemandVolatility: viper.GetFloat64("PLAN_DEMAND_VOLATILITY"),
				ServiceGrid:      serviceGrid(),
			},
		}
	})

	return instance
}

// serviceGrid parses the comma-separated service level grid from the
// environment, keeping only levels strictly inside (0,1).
func serviceGrid() []float64 {
	raw := strings.Split(viper.GetString("PLAN_SERVICE_GRID"), ",")
	grid := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && f > 0 && f < 1 {
			grid = append(grid, f)
		}
	}
	if len(grid) == 0 {
		return []float64{0.90, 0.92, 0.95, 0.97, 0.98, 0.99}
	}
	return grid
}
