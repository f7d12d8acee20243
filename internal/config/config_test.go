package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.TargetCurrency != "SAR" || cfg.Rates.BaseCurrency != "USD" {
		t.Errorf("defaults = %+v", cfg)
	}
	if Exists() {
		t.Error("Exists() = true with no file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.TargetCurrency = "EUR"
	cfg.General.Language = "en"
	cfg.Rates.RefreshMinutes = 15
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General != cfg.General || got.Rates != cfg.Rates {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "tripbudget"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "[general]\ntarget_currency = \"AED\"\n"
	if err := os.WriteFile(ConfigPath(), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.TargetCurrency != "AED" {
		t.Errorf("TargetCurrency = %q", cfg.General.TargetCurrency)
	}
	if cfg.Rates.TimeoutSeconds != 10 || cfg.Daemon.Addr == "" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TRIPBUDGET_RATES_URL", "http://127.0.0.1:9/latest")
	t.Setenv("TRIPBUDGET_DB", "/tmp/x.db")
	t.Setenv("TRIPBUDGET_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rates.URL != "http://127.0.0.1:9/latest" || cfg.StorePath() != "/tmp/x.db" || cfg.Log.Level != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestBadTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	_ = os.MkdirAll(filepath.Join(dir, "tripbudget"), 0o755)
	_ = os.WriteFile(ConfigPath(), []byte("[general\n"), 0o600)

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted malformed TOML")
	}
}

func TestStorePathDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfig().StorePath(); got != filepath.Join("/data", "tripbudget", "tripbudget.db") {
		t.Errorf("StorePath() = %q", got)
	}
}
