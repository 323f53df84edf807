// Package config provides configuration management for statgen.
// It loads configuration from environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
)

// Prefix is prepended to every variable name, e.g. STATGEN_MONTHS.
// DEBUG and LOG_FORMAT are also read without it.
const Prefix = "statgen"

// Config represents the application configuration.
type Config struct {
	StartDate     string `envconfig:"START_DATE" default:"2025-02-01"`
	Months        int    `envconfig:"MONTHS" default:"6"`
	SRTSheet      string `envconfig:"SRT_SHEET" default:"SRT"`
	STATSheet     string `envconfig:"STAT_SHEET" default:"STAT"`
	SubcodeColumn string `envconfig:"SUBCODE_COLUMN" default:"C1"`
	RemarkColumn  string `envconfig:"REMARK_COLUMN" default:"C2"`
	RulesFile     string `envconfig:"RULES_FILE"`
	Workers       int    `envconfig:"WORKERS" default:"4"`
	// HistoryDB enables run history when set.
	HistoryDB string `envconfig:"HISTORY_DB"`
	Root      string `envconfig:"ROOT" default:"."`

	Debug     bool   `envconfig:"DEBUG"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load loads configuration from environment variables.
// It loads .env from the current directory if present; an explicit envPath must exist.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// ErrInvalidConfiguration is returned by the Validate methods.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	return invalid(append(c.runProblems(), c.logProblems()...))
}

// ValidateRun checks the settings that shape a report run. Callers apply flag
// overrides first, so only the effective values are judged.
func (c *Config) ValidateRun() error {
	return invalid(c.runProblems())
}

// ValidateLogging checks the settings needed before logging is set up.
func (c *Config) ValidateLogging() error {
	return invalid(c.logProblems())
}

func (c *Config) runProblems() []string {
	var problems []string

	if _, err := calendar.Parse(c.StartDate); err != nil {
		problems = append(problems, fmt.Sprintf("start date %q is not YYYY-MM-DD", c.StartDate))
	}
	if c.Months < 1 {
		problems = append(problems, fmt.Sprintf("months must be at least 1, got %d", c.Months))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must not be negative, got %d", c.Workers))
	}
	if strings.TrimSpace(c.SRTSheet) == "" {
		problems = append(problems, "SRT sheet name is empty")
	}
	if strings.TrimSpace(c.STATSheet) == "" {
		problems = append(problems, "STAT sheet name is empty")
	}
	if c.SRTSheet != "" && c.SRTSheet == c.STATSheet {
		problems = append(problems, fmt.Sprintf("SRT and STAT sheets must differ, both are %q", c.SRTSheet))
	}
	if c.RemarkColumn != "" && c.RemarkColumn == c.SubcodeColumn {
		problems = append(problems, fmt.Sprintf("subcode and remark columns must differ, both are %q", c.SubcodeColumn))
	}
	return problems
}

func (c *Config) logProblems() []string {
	switch c.LogFormat {
	case "text", "json":
		return nil
	}
	return []string{fmt.Sprintf("log format must be text or json, got %q", c.LogFormat)}
}

func invalid(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s\nPlease check your .env file, environment variables or flags",
		ErrInvalidConfiguration, strings.Join(problems, "; "))
}
