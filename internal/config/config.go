package config

import (
	"os"
	"time"
)

// Defaults mirror the values the hosted storefront shipped with.
const (
	DefaultAPIBase        = "https://myfirst-backend.onrender.com"
	DefaultAddr           = ":8080"
	DefaultDataPath       = "myfirstfront.db"
	DefaultWhatsAppNumber = "23790632168"
	DefaultCORSOrigin     = "http://localhost:5173"
)

// Config carries everything the application shell needs. It is built
// once in main and passed down; no component reads the environment on
// its own.
type Config struct {
	// APIBase is the origin of the remote product/auth API.
	APIBase string
	// Addr is the listen address of the local shell server.
	Addr string
	// DataPath is the bbolt file holding token, cart, theme and the
	// mutation queue.
	DataPath string
	// WhatsAppNumber receives checkout order messages (international
	// format, no leading +).
	WhatsAppNumber string
	// SyncStartupDelay is the fixed pause before the first sync pass
	// after the shell starts.
	SyncStartupDelay time.Duration
	// ProbeInterval is how often connectivity to the remote API is
	// re-checked.
	ProbeInterval time.Duration
	// CORSOrigin is the single origin the shell accepts browser calls
	// from.
	CORSOrigin string
	// Env selects logger encoding ("production" switches to JSON).
	Env string
}

// Load reads the environment, falling back to defaults for anything
// unset or unparsable.
func Load() *Config {
	cfg := &Config{
		APIBase:          getenv("API_BASE", DefaultAPIBase),
		Addr:             getenv("ADDR", DefaultAddr),
		DataPath:         getenv("DATA_PATH", DefaultDataPath),
		WhatsAppNumber:   getenv("WHATSAPP_NUMBER", DefaultWhatsAppNumber),
		CORSOrigin:       getenv("CORS_ORIGIN", DefaultCORSOrigin),
		Env:              getenv("APP_ENV", "development"),
		SyncStartupDelay: getduration("SYNC_STARTUP_DELAY", 5*time.Second),
		ProbeInterval:    getduration("PROBE_INTERVAL", 15*time.Second),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
