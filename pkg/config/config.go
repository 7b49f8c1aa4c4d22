package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML config file. Env vars override the file and
// explicit flags override both (resolved in LoadEffective / main).
type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Storage struct {
		// DBPath is a directory for the pebble store, or ":memory:" for a
		// volatile in-memory store (the default; the workspace state is
		// reset by the admin clear operation anyway).
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Security struct {
		CORS struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Sessions struct {
		// TTLSeconds bounds session lifetime; expired sessions are swept
		// by the janitor. Zero means no expiry.
		TTLSeconds int64 `yaml:"ttl_seconds"`
	} `yaml:"sessions"`
	Janitor struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"janitor"`
	Telemetry struct {
		Dir        string  `yaml:"dir"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"telemetry"`
}

// Addr returns the listen address derived from server.address/server.port.
func (c *Config) Addr() string {
	host := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// EffectiveConfigResult carries the merged config plus where the decisive
// values came from, for the startup banner.
type EffectiveConfigResult struct {
	Config Config
	Addr   string
	DBPath string
	Source string // "flags" | "env" | "config" | "default"
}

// ParseCommandFlags parses the server command line and reports which flags
// were explicitly set so they can win over env/config.
func ParseCommandFlags() (addr, db, cfg string, set map[string]bool) {
	addrFlag := flag.String("addr", ":8080", "listen address")
	dbFlag := flag.String("db", ":memory:", "pebble data directory, or :memory:")
	cfgFlag := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *addrFlag, *dbFlag, *cfgFlag, set
}

// ResolveConfigPath picks the config file path: flag wins over env.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet && flagVal != "" {
		return flagVal
	}
	if p := os.Getenv("TEAMLINE_CONFIG"); p != "" {
		return p
	}
	return flagVal
}

// LoadEffective loads the YAML file (when present) and applies env
// overrides. Flag resolution happens in main, which knows which flags the
// user actually set.
func LoadEffective(path string) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	res.Source = "default"

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return res, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &res.Config); err != nil {
			return res, fmt.Errorf("parse config %s: %w", path, err)
		}
		res.Source = "config"
	}

	res.Addr = res.Config.Addr()
	res.DBPath = res.Config.Storage.DBPath
	if res.DBPath == "" {
		res.DBPath = ":memory:"
	}

	if v := os.Getenv("TEAMLINE_ADDR"); v != "" {
		res.Addr = v
		res.Source = "env"
	}
	if v := os.Getenv("TEAMLINE_DB_PATH"); v != "" {
		res.DBPath = v
		res.Source = "env"
	}
	if v := os.Getenv("TEAMLINE_LOG_LEVEL"); v != "" {
		res.Config.Logging.Level = v
	}
	if v := os.Getenv("TEAMLINE_SESSION_TTL"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			res.Config.Sessions.TTLSeconds = n
		}
	}
	if res.Config.Janitor.Cron == "" {
		res.Config.Janitor.Cron = "0 * * * *"
	}
	if res.Config.Security.RateLimit.RPS == 0 {
		res.Config.Security.RateLimit.RPS = 50
	}
	if res.Config.Security.RateLimit.Burst == 0 {
		res.Config.Security.RateLimit.Burst = 100
	}
	return res, nil
}
