// Package cfg loads the two independent configuration surfaces this
// codebase's lineage keeps separate: a viper-backed config for the buffer
// manager instance itself, and an envconfig/godotenv-backed bootstrap for
// the bench subcommand's load generator.
package cfg

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ManagerConfig configures the buffer manager instance every CLI
// subcommand constructs.
type ManagerConfig struct {
	Environment Environment `mapstructure:"ENVIRONMENT"`

	PageSize  uint64 `mapstructure:"PAGE_SIZE"`
	PageCount uint64 `mapstructure:"PAGE_COUNT"`
	DataDir   string `mapstructure:"DATA_DIR"`
}

// LoadManagerConfig reads PAGE_SIZE/PAGE_COUNT/DATA_DIR/ENVIRONMENT from a
// .env-style file at path (if present) and from BUFPOOL_-prefixed
// environment variables, env taking precedence.
func LoadManagerConfig(path string) (ManagerConfig, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.SetEnvPrefix("BUFPOOL")
	v.AutomaticEnv()

	v.SetDefault("ENVIRONMENT", string(EnvDev))
	v.SetDefault("PAGE_SIZE", 4096)
	v.SetDefault("PAGE_COUNT", 1024)
	v.SetDefault("DATA_DIR", "./data")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return ManagerConfig{}, fmt.Errorf("cfg: read config: %w", err)
		}
	}

	var cfg ManagerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ManagerConfig{}, fmt.Errorf("cfg: unmarshal config: %w", err)
	}

	if err := cfg.Environment.Validate(); err != nil {
		return ManagerConfig{}, fmt.Errorf("cfg: %w", err)
	}

	if cfg.PageSize < 8 || cfg.PageSize%8 != 0 {
		return ManagerConfig{}, fmt.Errorf("cfg: PAGE_SIZE must be >= 8 and a multiple of 8, got %d", cfg.PageSize)
	}

	if cfg.PageCount < 1 {
		return ManagerConfig{}, fmt.Errorf("cfg: PAGE_COUNT must be >= 1, got %d", cfg.PageCount)
	}

	return cfg, nil
}

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

type Environment string

func (e Environment) Validate() error {
	if e != EnvDev && e != EnvProd {
		return fmt.Errorf("environment must be either %q or %q, got %q", EnvDev, EnvProd, e)
	}

	return nil
}
