package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/akywe-ledger/akywe/internal/logging"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full daemon configuration, read from $AKYWE_HOME/config.toml.
type Config struct {
	Home    string         `toml:"-"`
	Storage StorageConfig  `toml:"storage"`
	API     APIConfig      `toml:"api"`
	Ledger  LedgerConfig   `toml:"ledger"`
	Log     logging.Config `toml:"log"`
}

// StorageConfig selects and configures the persistent medium.
type StorageConfig struct {
	Backend string      `toml:"backend"` // sqlite|redis|memory
	Path    string      `toml:"path"`    // sqlite directory; empty means Home
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// APIConfig configures the local HTTP surface.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	Metrics     bool     `toml:"metrics"`
}

// LedgerConfig holds ledger policy and presentation settings.
type LedgerConfig struct {
	StrictUpdates bool   `toml:"strict_updates"`
	CascadeDelete bool   `toml:"cascade_delete"`
	NoticeTTL     string `toml:"notice_ttl"`
	Currency      string `toml:"currency"`
	Shop          string `toml:"shop"`

	// StatementFont is a TTF used for PDF statements when names or items
	// need more than Latin-1.
	StatementFont string `toml:"statement_font"`
}

// DefaultHome returns $AKYWE_HOME, or ~/.akywe.
func DefaultHome() string {
	if h := os.Getenv("AKYWE_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".akywe"
	}
	return filepath.Join(home, ".akywe")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Home: DefaultHome(),
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Redis: RedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "akywe:",
			},
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8787,
			CORSOrigins: []string{"http://localhost:5173"},
			Metrics:     true,
		},
		Ledger: LedgerConfig{
			NoticeTTL: "3s",
			Currency:  "Ks",
			Shop:      "Bakery",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the configuration: defaults, then the TOML file, then
// AKYWE_* environment variables. A .env file in the working directory or
// in home seeds the environment without overriding variables already set.
// An empty home means DefaultHome; an empty path means home/config.toml.
// A missing file is not an error.
func LoadConfig(home, path string) (Config, error) {
	if home == "" {
		home = DefaultHome()
	}
	for _, env := range []string{".env", filepath.Join(home, ".env")} {
		if err := godotenv.Load(env); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", env, err)
		}
	}

	cfg := DefaultConfig()
	cfg.Home = home
	if path == "" {
		path = filepath.Join(home, "config.toml")
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from AKYWE_* variables.
func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
		return nil
	}
	integer := func(key string, dst *int) error {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
		return nil
	}

	str("AKYWE_BACKEND", &c.Storage.Backend)
	str("AKYWE_STORAGE_PATH", &c.Storage.Path)
	str("AKYWE_REDIS_ADDR", &c.Storage.Redis.Addr)
	str("AKYWE_REDIS_PASSWORD", &c.Storage.Redis.Password)
	str("AKYWE_REDIS_PREFIX", &c.Storage.Redis.Prefix)
	str("AKYWE_API_HOST", &c.API.Host)
	str("AKYWE_NOTICE_TTL", &c.Ledger.NoticeTTL)
	str("AKYWE_CURRENCY", &c.Ledger.Currency)
	str("AKYWE_SHOP", &c.Ledger.Shop)
	str("AKYWE_STATEMENT_FONT", &c.Ledger.StatementFont)
	str("AKYWE_LOG_LEVEL", &c.Log.Level)
	str("AKYWE_LOG_FORMAT", &c.Log.Format)
	if v, ok := os.LookupEnv("AKYWE_CORS_ORIGINS"); ok {
		c.API.CORSOrigins = splitCSV(v)
	}

	return errors.Join(
		integer("AKYWE_REDIS_DB", &c.Storage.Redis.DB),
		integer("AKYWE_API_PORT", &c.API.Port),
		boolean("AKYWE_METRICS", &c.API.Metrics),
		boolean("AKYWE_STRICT_UPDATES", &c.Ledger.StrictUpdates),
		boolean("AKYWE_CASCADE_DELETE", &c.Ledger.CascadeDelete),
	)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("storage.backend %q: want sqlite, redis or memory", c.Storage.Backend)
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if _, err := c.NoticeTTL(); err != nil {
		return err
	}
	if c.Ledger.StatementFont != "" {
		if _, err := os.Stat(c.Ledger.StatementFont); err != nil {
			return fmt.Errorf("ledger.statement_font: %w", err)
		}
	}
	return nil
}

// NoticeTTL parses Ledger.NoticeTTL.
func (c Config) NoticeTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Ledger.NoticeTTL)
	if err != nil {
		return 0, fmt.Errorf("ledger.notice_ttl: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ledger.notice_ttl %s: must be positive", d)
	}
	return d, nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

// DataDir is where the sqlite backend keeps its database.
func (c Config) DataDir() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return c.Home
}

// WriteConfig writes cfg as TOML to path, creating parent directories.
func WriteConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
