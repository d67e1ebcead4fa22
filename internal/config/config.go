// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/loan-revision/pkg/constants"
	"github.com/iwvelando/loan-revision/pkg/validation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LOAN_REVISION_INDICES_DSN.
const EnvPrefix = "LOAN_REVISION"

// Configuration holds all configuration for a loan-revision run.
type Configuration struct {
	Loan    Loan
	Indices IndicesConfig `yaml:"indices,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// Loan holds the contract being revised.
type Loan struct {
	Price                float64
	DownPayment          float64
	InterestRate         float64
	RatePeriod           string // annual, monthly
	Installments         int
	ContractDate         string
	FirstInstallmentDate string
	CorrectionIndex      string // INCC, IPCA or empty
	PaidInstallments     int    // 0 compares every installment
}

// IndicesConfig locates the index store and its optional helpers.
type IndicesConfig struct {
	Driver         string      `yaml:"driver,omitempty"` // memory, sqlite, postgres
	DSN            string      `yaml:"dsn,omitempty"`
	ImportFile     string      `yaml:"importFile,omitempty"`
	ImportSchedule string      `yaml:"importSchedule,omitempty"` // cron spec, server only
	Cache          CacheConfig `yaml:"cache,omitempty"`
}

// CacheConfig enables the Redis lookup cache when RedisAddress is set.
type CacheConfig struct {
	RedisAddress string        `yaml:"redisAddress,omitempty"`
	TTL          time.Duration `yaml:"ttl,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("indices.driver", constants.IndexDriverMemory)
	v.SetDefault("indices.dsn", "")
	v.SetDefault("indices.cache.redisAddress", "")
	v.SetDefault("indices.cache.ttl", time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// Validate checks the non-loan sections. Loan terms are validated when they
// are converted with ToLoanParameters.
func (c *Configuration) Validate() error {
	switch c.Output.Format {
	case "", constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
	default:
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.Logging.Level)
	}

	switch c.Indices.Driver {
	case "", constants.IndexDriverMemory, constants.IndexDriverSQLite, constants.IndexDriverPostgres:
	default:
		return fmt.Errorf("unsupported index driver %q", c.Indices.Driver)
	}
	if c.Indices.Driver == constants.IndexDriverPostgres && c.Indices.DSN == "" {
		return fmt.Errorf("index driver %q requires indices.dsn", c.Indices.Driver)
	}
	if c.Indices.Cache.TTL < 0 {
		return fmt.Errorf("indices.cache.ttl must not be negative")
	}
	return nil
}

// ValidateConfiguration returns non-fatal warnings about the loan section.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	warning, err := validation.ValidateContractTimeline(c.Loan.ContractDate, c.Loan.FirstInstallmentDate)
	if err != nil {
		warnings = append(warnings, err.Error())
	} else if warning != "" {
		warnings = append(warnings, warning)
	}
	return append(warnings, validation.ValidatePaidInstallments(c.Loan.PaidInstallments, c.Loan.Installments)...)
}
