package cfg

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// BenchEnv tunes the bench subcommand's load generator. It is
// intentionally not part of ManagerConfig: it configures the workload
// hammering the manager, not the manager itself.
type BenchEnv struct {
	Workers    int  `envconfig:"BENCH_WORKERS" default:"8"`
	Iterations int  `envconfig:"BENCH_ITERATIONS" default:"1000"`
	Exclusive  bool `envconfig:"BENCH_EXCLUSIVE" default:"false"`
}

// LoadBenchEnv loads BUFPOOL_BENCH_* environment variables, first loading
// any .env file in the working directory (missing is not an error).
func LoadBenchEnv() (BenchEnv, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return BenchEnv{}, fmt.Errorf("cfg: load .env: %w", err)
	}

	var env BenchEnv
	if err := envconfig.Process("BUFPOOL", &env); err != nil {
		return BenchEnv{}, fmt.Errorf("cfg: process bench env: %w", err)
	}

	if env.Workers < 1 {
		return BenchEnv{}, fmt.Errorf("cfg: BENCH_WORKERS must be >= 1, got %d", env.Workers)
	}

	return env, nil
}
