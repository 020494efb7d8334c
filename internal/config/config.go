package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bher20/dormbill/internal/billing"
	"gopkg.in/yaml.v3"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	AutoMigrate bool

	LogLevel  string
	LogFormat string

	// JWTSecret enables bearer-token authorization when non-empty.
	JWTSecret string

	// DueSchedule is a 5-field cron expression used to derive due dates.
	DueSchedule string
	// OverdueSchedule controls how often the worker sweeps overdue bills.
	OverdueSchedule string

	TariffFile string
	Tariff     Tariff
}

// Tariff is the operator-supplied pricing used when a request omits rates.
type Tariff struct {
	ElectricRate float64              `yaml:"electric_rate"`
	VATRate      float64              `yaml:"vat_rate"`
	Split        string               `yaml:"split"`
	WaterTiers   billing.TierSchedule `yaml:"water_tiers"`
}

// DefaultTariff is the reference water schedule with no electricity rate.
func DefaultTariff() Tariff {
	return Tariff{
		VATRate:    billing.ReferenceVATRate,
		Split:      billing.SplitDays,
		WaterTiers: billing.ReferenceTiers(),
	}
}

// FromEnv builds a Config from environment variables, with sane defaults.
// When DORMBILL_TARIFF_FILE is set the YAML file is overlaid on the tariff.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:            getenv("PORT", "8000"),
		DBDriver:        getenv("DORMBILL_DB_DRIVER", "memory"),
		DBDSN:           os.Getenv("DORMBILL_DB_DSN"),
		AutoMigrate:     truthy(os.Getenv("DORMBILL_AUTO_MIGRATE")),
		LogLevel:        getenv("DORMBILL_LOG_LEVEL", "info"),
		LogFormat:       getenv("DORMBILL_LOG_FORMAT", "json"),
		JWTSecret:       os.Getenv("DORMBILL_JWT_SECRET"),
		DueSchedule:     getenv("DORMBILL_DUE_SCHEDULE", "0 0 15 * *"),
		OverdueSchedule: getenv("DORMBILL_OVERDUE_SCHEDULE", "@hourly"),
		TariffFile:      os.Getenv("DORMBILL_TARIFF_FILE"),
		Tariff:          DefaultTariff(),
	}
	if cfg.DBDSN == "" && cfg.DBDriver == "sqlite" {
		cfg.DBDSN = "dormbill.db"
	}

	if v := os.Getenv("DORMBILL_ELECTRIC_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("DORMBILL_ELECTRIC_RATE: %w", err)
		}
		cfg.Tariff.ElectricRate = f
	}
	if v := os.Getenv("DORMBILL_VAT_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("DORMBILL_VAT_RATE: %w", err)
		}
		cfg.Tariff.VATRate = f
	}
	if v := os.Getenv("DORMBILL_SPLIT"); v != "" {
		cfg.Tariff.Split = v
	}

	if cfg.TariffFile != "" {
		t, err := LoadTariff(cfg.TariffFile, cfg.Tariff)
		if err != nil {
			return cfg, err
		}
		cfg.Tariff = t
	}
	if err := cfg.Tariff.Validate(); err != nil {
		return cfg, fmt.Errorf("tariff: %w", err)
	}
	return cfg, nil
}

// Validate range-checks the rates and resolves the split name. The
// comparisons are written so NaN fails them.
func (t Tariff) Validate() error {
	if !(t.ElectricRate >= 0) {
		return fmt.Errorf("electric_rate must be >= 0, got %v", t.ElectricRate)
	}
	if !(t.VATRate >= 0 && t.VATRate < 1) {
		return fmt.Errorf("vat_rate must be in [0, 1), got %v", t.VATRate)
	}
	if _, err := billing.AllocatorFor(t.Split); err != nil {
		return err
	}
	return nil
}

// LoadTariff reads a YAML tariff file on top of base. Keys missing from the
// file keep their base value.
func LoadTariff(path string, base Tariff) (Tariff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read tariff file: %w", err)
	}
	t := base
	if err := yaml.Unmarshal(data, &t); err != nil {
		return base, fmt.Errorf("parse tariff file %s: %w", path, err)
	}
	if err := t.WaterTiers.Validate(); err != nil {
		return base, fmt.Errorf("tariff file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return base, fmt.Errorf("tariff file %s: %w", path, err)
	}
	return t, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
