// Package config merges flags, environment variables, and an optional
// config file into typed configuration structs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServeConfig holds configuration for the HTTP API server.
type ServeConfig struct {
	Addr      string
	Port      int
	Tokens    []string
	Reserves  []float64
	Plane     float64
	StateFile string
	PGDSN     string
	LogLevel  string
}

// LoadServe merges config file, environment variables, and flags into a
// ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"addr":      "127.0.0.1",
		"port":      8080,
		"tokens":    "USDC,USDT,DAI",
		"reserves":  "1000,1000,1000",
		"plane":     600.0,
		"state":     "./data/market.json",
		"log-level": "info",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	reserves, err := ParseFloats(getStringSlice(v, "reserves"))
	if err != nil {
		return ServeConfig{}, fmt.Errorf("parse reserves: %w", err)
	}

	cfg := ServeConfig{
		Addr:      v.GetString("addr"),
		Port:      v.GetInt("port"),
		Tokens:    getStringSlice(v, "tokens"),
		Reserves:  reserves,
		Plane:     v.GetFloat64("plane"),
		StateFile: v.GetString("state"),
		PGDSN:     v.GetString("pg-dsn"),
		LogLevel:  v.GetString("log-level"),
	}
	return cfg, nil
}

// InitConfig holds configuration for seeding a fresh market snapshot.
type InitConfig struct {
	Tokens    []string
	Reserves  []float64
	Plane     float64
	StateFile string
	PGDSN     string
	LogLevel  string
}

// LoadInit merges config file, environment variables, and flags into an
// InitConfig.
func LoadInit(cfgFile string, flags *pflag.FlagSet) (InitConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"tokens":    "USDC,USDT,DAI",
		"reserves":  "1000,1000,1000",
		"plane":     600.0,
		"state":     "./data/market.json",
		"log-level": "info",
	})
	if err != nil {
		return InitConfig{}, err
	}

	reserves, err := ParseFloats(getStringSlice(v, "reserves"))
	if err != nil {
		return InitConfig{}, fmt.Errorf("parse reserves: %w", err)
	}

	cfg := InitConfig{
		Tokens:    getStringSlice(v, "tokens"),
		Reserves:  reserves,
		Plane:     v.GetFloat64("plane"),
		StateFile: v.GetString("state"),
		PGDSN:     v.GetString("pg-dsn"),
		LogLevel:  v.GetString("log-level"),
	}
	return cfg, nil
}

// DashboardConfig holds configuration for the terminal dashboard.
type DashboardConfig struct {
	StateFile string
	PGDSN     string
	Interval  time.Duration
	LogLevel  string
}

// LoadDashboard merges config file, environment variables, and flags into
// a DashboardConfig.
func LoadDashboard(cfgFile string, flags *pflag.FlagSet) (DashboardConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"state":     "./data/market.json",
		"interval":  500 * time.Millisecond,
		"log-level": "info",
	})
	if err != nil {
		return DashboardConfig{}, err
	}

	cfg := DashboardConfig{
		StateFile: v.GetString("state"),
		PGDSN:     v.GetString("pg-dsn"),
		Interval:  v.GetDuration("interval"),
		LogLevel:  v.GetString("log-level"),
	}
	return cfg, nil
}

// StateConfig holds the snapshot location shared by the one-shot market
// commands.
type StateConfig struct {
	StateFile string
	PGDSN     string
	LogLevel  string
}

// LoadState merges config file, environment variables, and flags into a
// StateConfig.
func LoadState(cfgFile string, flags *pflag.FlagSet) (StateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"state":     "./data/market.json",
		"log-level": "info",
	})
	if err != nil {
		return StateConfig{}, err
	}

	cfg := StateConfig{
		StateFile: v.GetString("state"),
		PGDSN:     v.GetString("pg-dsn"),
		LogLevel:  v.GetString("log-level"),
	}
	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("SPHERESWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
