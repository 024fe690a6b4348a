package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("AKYWE_HOME", "/tmp/akywe-home")
	cfg := DefaultConfig()

	if cfg.Home != "/tmp/akywe-home" {
		t.Errorf("Home = %q, want AKYWE_HOME", cfg.Home)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8787 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8787)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendSQLite)
	}
	if cfg.Ledger.StrictUpdates || cfg.Ledger.CascadeDelete {
		t.Error("ledger policy should be relaxed by default")
	}
	if cfg.Ledger.Currency != "Ks" {
		t.Errorf("Ledger.Currency = %q, want Ks", cfg.Ledger.Currency)
	}
	ttl, err := cfg.NoticeTTL()
	if err != nil || ttl != 3*time.Second {
		t.Errorf("NoticeTTL = %v, %v; want 3s", ttl, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadConfig(home, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Home != home {
		t.Errorf("Home = %q, want %q", cfg.Home, home)
	}
	if cfg.DataDir() != home {
		t.Errorf("DataDir = %q, want home", cfg.DataDir())
	}
	if cfg.Addr() != "127.0.0.1:8787" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestLoadConfig_File(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, "config.toml"), `
[storage]
backend = "memory"

[api]
port = 9000
cors_origins = ["http://shop.local"]

[ledger]
strict_updates = true
cascade_delete = true
notice_ttl = "5s"
currency = "MMK"

[log]
level = "debug"
format = "json"
`)

	cfg, err := LoadConfig(home, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.API.Port != 9000 || cfg.API.Host != "127.0.0.1" {
		t.Errorf("api = %+v", cfg.API)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "http://shop.local" {
		t.Errorf("cors = %v", cfg.API.CORSOrigins)
	}
	if !cfg.Ledger.StrictUpdates || !cfg.Ledger.CascadeDelete {
		t.Errorf("ledger = %+v", cfg.Ledger)
	}
	if ttl, _ := cfg.NoticeTTL(); ttl != 5*time.Second {
		t.Errorf("ttl = %v", ttl)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, "config.toml"), "[api]\nport = 9000\n")
	t.Setenv("AKYWE_API_PORT", "9100")
	t.Setenv("AKYWE_STRICT_UPDATES", "true")
	t.Setenv("AKYWE_CORS_ORIGINS", "http://a, http://b")

	cfg, err := LoadConfig(home, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 9100 {
		t.Errorf("port = %d, want env value", cfg.API.Port)
	}
	if !cfg.Ledger.StrictUpdates {
		t.Error("strict updates not taken from env")
	}
	if strings.Join(cfg.API.CORSOrigins, "|") != "http://a|http://b" {
		t.Errorf("cors = %v", cfg.API.CORSOrigins)
	}
}

func TestLoadConfig_DotEnvInHome(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".env"), "AKYWE_SHOP=Golden Crust\n")
	t.Cleanup(func() { os.Unsetenv("AKYWE_SHOP") })

	cfg, err := LoadConfig(home, "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Ledger.Shop != "Golden Crust" {
		t.Errorf("shop = %q, want value from .env", cfg.Ledger.Shop)
	}
}

func TestLoadConfig_MalformedDotEnv(t *testing.T) {
	const malformed = "AKYWE-SHOP=Golden Crust\n"

	t.Run("home", func(t *testing.T) {
		home := t.TempDir()
		writeFile(t, filepath.Join(home, ".env"), malformed)
		if _, err := LoadConfig(home, ""); err == nil || !strings.Contains(err.Error(), ".env") {
			t.Errorf("err = %v, want .env read error", err)
		}
	})

	t.Run("working directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".env"), malformed)
		t.Chdir(dir)
		if _, err := LoadConfig(t.TempDir(), ""); err == nil || !strings.Contains(err.Error(), ".env") {
			t.Errorf("err = %v, want .env read error", err)
		}
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
		want string
	}{
		{"unknown key", "[ledger]\nstrict = true\n", nil, "unknown keys"},
		{"bad syntax", "[ledger\n", nil, "parse config"},
		{"bad backend", "[storage]\nbackend = \"mongo\"\n", nil, "storage.backend"},
		{"bad port", "[api]\nport = 0\n", nil, "api.port"},
		{"bad ttl", "[ledger]\nnotice_ttl = \"soon\"\n", nil, "notice_ttl"},
		{"bad env bool", "", map[string]string{"AKYWE_CASCADE_DELETE": "maybe"}, "AKYWE_CASCADE_DELETE"},
		{"missing statement font", "[ledger]\nstatement_font = \"/nonexistent/akywe.ttf\"\n", nil, "statement_font"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			if tt.toml != "" {
				writeFile(t, filepath.Join(home, "config.toml"), tt.toml)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(home, "")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig()
	cfg.Home = home
	cfg.Ledger.Currency = "MMK"

	path := filepath.Join(home, "nested", "config.toml")
	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	got, err := LoadConfig(home, path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Ledger.Currency != "MMK" {
		t.Errorf("currency = %q", got.Ledger.Currency)
	}
}

func TestNew_MemoryBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Home = t.TempDir()
	cfg.Storage.Backend = BackendMemory

	app, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()

	c, err := app.Service.AddCustomer(context.Background(), "Mya", "")
	if err != nil {
		t.Fatalf("AddCustomer: %v", err)
	}
	if name := app.Ledger().CustomerName(c.ID); name != "Mya" {
		t.Errorf("CustomerName = %q", name)
	}
}

func TestNew_SQLitePersists(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Home = t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	app, err := New(ctx, cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c, err := app.Service.AddCustomer(ctx, "Mya", "")
	if err != nil {
		t.Fatalf("AddCustomer: %v", err)
	}
	if _, err := app.Service.AddDebt(ctx, c.ID, "bread", 5000, "2024-01-01"); err != nil {
		t.Fatalf("AddDebt: %v", err)
	}
	app.Close()

	app, err = New(ctx, cfg, log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer app.Close()
	if bal := app.Ledger().OutstandingBalance(c.ID); bal != 5000 {
		t.Errorf("balance after reopen = %d, want 5000", bal)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
