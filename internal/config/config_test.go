package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Business.Name != "Dietlhousing" {
		t.Errorf("expected business name 'Dietlhousing', got %q", cfg.Business.Name)
	}
	if cfg.Business.ContactEmail != "contact@dietlhousing.de" {
		t.Errorf("unexpected contact email %q", cfg.Business.ContactEmail)
	}
	if cfg.Business.Country != "Germany" {
		t.Errorf("unexpected country %q", cfg.Business.Country)
	}
	if cfg.Business.RetentionPeriod != "12 months" {
		t.Errorf("unexpected retention period %q", cfg.Business.RetentionPeriod)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("expected memory store by default, got %q", cfg.Store)
	}
	if !cfg.UsesDefaultSecret() {
		t.Error("expected default secret to be reported")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRIVACY_BUSINESS_NAME", "Acme GmbH")
	t.Setenv("PRIVACY_SECRET_KEY", "s3cret")
	t.Setenv("PRIVACY_STORE", "sqlite")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Business.Name != "Acme GmbH" {
		t.Errorf("expected env business name, got %q", cfg.Business.Name)
	}
	if cfg.UsesDefaultSecret() {
		t.Error("expected custom secret")
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("expected sqlite store, got %q", cfg.Store)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "country: Austria\nretention_period: 6 months\naddr: 127.0.0.1:8080\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Business.Country != "Austria" {
		t.Errorf("expected country from file, got %q", cfg.Business.Country)
	}
	if cfg.Business.RetentionPeriod != "6 months" {
		t.Errorf("expected retention from file, got %q", cfg.Business.RetentionPeriod)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("expected addr from file, got %q", cfg.Addr)
	}
	if cfg.Business.Name != "Dietlhousing" {
		t.Errorf("expected default business name to survive, got %q", cfg.Business.Name)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Addr: ":5000", SecretKey: "k", Store: StoreMemory}

	cases := map[string]func(c *Config){
		"unknown store": func(c *Config) { c.Store = "redis" },
		"empty addr":    func(c *Config) { c.Addr = "" },
		"empty secret":  func(c *Config) { c.SecretKey = "" },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := base.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
