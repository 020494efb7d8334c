package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bher20/dormbill/internal/billing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DORMBILL_DB_DRIVER", "DORMBILL_TARIFF_FILE", "DORMBILL_VAT_RATE", "DORMBILL_ELECTRIC_RATE", "DORMBILL_SPLIT"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" || cfg.DBDriver != "memory" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Tariff.VATRate != billing.ReferenceVATRate || len(cfg.Tariff.WaterTiers) != 5 {
		t.Errorf("expected reference tariff, got %+v", cfg.Tariff)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DORMBILL_DB_DRIVER", "sqlite")
	t.Setenv("DORMBILL_DB_DSN", "")
	t.Setenv("DORMBILL_ELECTRIC_RATE", "11.75")
	t.Setenv("DORMBILL_AUTO_MIGRATE", "Yes")
	t.Setenv("DORMBILL_TARIFF_FILE", "")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDSN != "dormbill.db" {
		t.Errorf("expected sqlite default dsn, got %q", cfg.DBDSN)
	}
	if cfg.Tariff.ElectricRate != 11.75 || !cfg.AutoMigrate {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestFromEnv_BadRate(t *testing.T) {
	t.Setenv("DORMBILL_VAT_RATE", "twelve")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for non-numeric VAT rate")
	}
}

func TestFromEnv_RejectsOutOfRangeTariff(t *testing.T) {
	cases := []struct {
		name, key, val string
	}{
		{"negative electric rate", "DORMBILL_ELECTRIC_RATE", "-1"},
		{"nan electric rate", "DORMBILL_ELECTRIC_RATE", "NaN"},
		{"negative vat", "DORMBILL_VAT_RATE", "-0.12"},
		{"vat as percent", "DORMBILL_VAT_RATE", "12"},
		{"vat of one", "DORMBILL_VAT_RATE", "1"},
		{"unknown split", "DORMBILL_SPLIT", "by-height"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"DORMBILL_TARIFF_FILE", "DORMBILL_VAT_RATE", "DORMBILL_ELECTRIC_RATE", "DORMBILL_SPLIT"} {
				t.Setenv(k, "")
			}
			t.Setenv(tc.key, tc.val)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestFromEnv_AcceptsBoundaryTariff(t *testing.T) {
	t.Setenv("DORMBILL_TARIFF_FILE", "")
	t.Setenv("DORMBILL_ELECTRIC_RATE", "0")
	t.Setenv("DORMBILL_VAT_RATE", "0")
	t.Setenv("DORMBILL_SPLIT", "PAX")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tariff.VATRate != 0 || cfg.Tariff.ElectricRate != 0 {
		t.Errorf("unexpected tariff: %+v", cfg.Tariff)
	}
}

func TestLoadTariff_RejectsVATOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff.yaml")
	if err := os.WriteFile(path, []byte("vat_rate: 12\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTariff(path, DefaultTariff()); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestLoadTariff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff.yaml")
	doc := `
electric_rate: 13.5
vat_rate: 0.1
split: pax
water_tiers:
  - {capacity: 15, mode: flat, amount: 200}
  - {unbounded: true, mode: per_unit, amount: 30}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	tf, err := LoadTariff(path, DefaultTariff())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.ElectricRate != 13.5 || tf.VATRate != 0.1 || tf.Split != "pax" {
		t.Errorf("unexpected tariff: %+v", tf)
	}
	if len(tf.WaterTiers) != 2 || !tf.WaterTiers[1].Unbounded || tf.WaterTiers[0].Mode != billing.ChargeFlat {
		t.Errorf("unexpected tiers: %+v", tf.WaterTiers)
	}
}

func TestLoadTariff_InvalidTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff.yaml")
	doc := "water_tiers:\n  - {capacity: 0, mode: flat, amount: 1}\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTariff(path, DefaultTariff()); err == nil {
		t.Fatalf("expected validation error")
	}
}
