// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `DEMOSITE_`-prefixed environment overrides  – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Durations are parsed by koanf from strings such as "30m".

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	// SessionKey signs the admin session cookie.  32+ bytes recommended.
	SessionKey    string `koanf:"session_key"    validate:"required,min=16"`
	DefaultLocale string `koanf:"default_locale" validate:"required,len=2"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The DSN is kept in YAML with a single `%s` verb where the password goes, so
// operators can tweak host, port, or flags without touching Vault.  The
// password is usually a `vault:` reference.
type Database struct {
	DSN          string `koanf:"dsn"            validate:"required"`
	Password     string `koanf:"password"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"gte=0"`
	Migrate      bool   `koanf:"migrate"`
}

//
// Preview section
//

// Preview configures the preview-token lifetime and the expired-token sweep.
type Preview struct {
	TTL           time.Duration `koanf:"ttl"            validate:"required,min=1m,max=24h"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=0"`
}

//
// Cache section
//

// Cache tunes the public demo-site cache.
type Cache struct {
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"gte=0"`
	MaxEntries    int           `koanf:"max_entries"    validate:"gte=0"`
	EvictInterval time.Duration `koanf:"evict_interval" validate:"gte=0"`
}

//
// Scraper section
//

// Scraper points at the external lead-scraping service.
type Scraper struct {
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"  validate:"gte=0"`
}

//
// Geo section
//

// Geo holds the optional GeoLite2-City database path.  Empty disables lookups.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Log section
//

// Log controls the zap logger.  Tee mirrors file output to stdout.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // DEMOSITE_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Preview  Preview  `koanf:"preview"`
	Cache    Cache    `koanf:"cache"`
	Scraper  Scraper  `koanf:"scraper"`
	Geo      Geo      `koanf:"geo"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}
