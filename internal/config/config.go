package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Драйверы платформы
const (
	PlatformMemory = "memory" // движок в процессе, записи в памяти
	PlatformPG     = "pg"     // движок в процессе, записи в PostgreSQL
	PlatformHTTP   = "http"   // удалённая платформа по /rpc/*
)

type Config struct {
	Port       string `json:"port"`
	CatalogDir string `json:"catalogDir"`

	Platform    string `json:"platform"` // memory (default) | pg | http
	DBURL       string `json:"dbUrl"`
	AutoMigrate bool   `json:"autoMigrate"`
	PlatformURL string `json:"platformUrl"`
	RPCTimeout  string `json:"rpcTimeout"` // time.ParseDuration

	LogLevel  string `json:"logLevel"`  // debug | info | warn | error
	LogFormat string `json:"logFormat"` // auto | text | json
	GinMode   string `json:"ginMode"`   // debug | release | test
}

func def() Config {
	return Config{
		Port:       "8080",
		CatalogDir: "catalog",

		Platform:    PlatformMemory,
		DBURL:       "",
		AutoMigrate: false,
		PlatformURL: "",
		RPCTimeout:  "30s",

		LogLevel:  "info",
		LogFormat: "auto",
		GinMode:   "release",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

// Load читает JSON (путь из -config или jsonPath), потом применяет ENV и флаги из args.
func Load(jsonPath string, args []string) (Config, error) {
	configPath := configArg(args, getenv("PFLIST_CONFIG", jsonPath))

	cfg := def()
	if st, err := os.Stat(configPath); err == nil && !st.IsDir() {
		c2, err := loadJSON(configPath)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", configPath, err)
		}
		cfg = c2
	}

	// ENV overrides
	cfg.Port = getenv("PFLIST_PORT", cfg.Port)
	cfg.CatalogDir = getenv("PFLIST_CATALOG_DIR", cfg.CatalogDir)
	cfg.Platform = getenv("PFLIST_PLATFORM", cfg.Platform)
	cfg.DBURL = getenv("PFLIST_DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("PFLIST_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.PlatformURL = getenv("PFLIST_PLATFORM_URL", cfg.PlatformURL)
	cfg.RPCTimeout = getenv("PFLIST_RPC_TIMEOUT", cfg.RPCTimeout)
	cfg.LogLevel = getenv("PFLIST_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("PFLIST_LOG_FORMAT", cfg.LogFormat)
	cfg.GinMode = getenv("PFLIST_GIN_MODE", cfg.GinMode)

	// Flags overrides
	fs := flag.NewFlagSet("pflist", flag.ContinueOnError)
	fs.String("config", configPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	catalogDir := fs.String("catalog", cfg.CatalogDir, "Catalog directory (*.dsl objects, *.yaml lists/list views/records)")
	platform := fs.String("platform", cfg.Platform, "Platform driver (memory/pg/http)")
	db := fs.String("db", cfg.DBURL, "Postgres URL (platform=pg)")
	auto := fs.String("auto-migrate", strconv.FormatBool(cfg.AutoMigrate), "Apply DDL on start (true/false)")
	platformURL := fs.String("platform-url", cfg.PlatformURL, "Remote platform base URL (platform=http)")
	rpcTimeout := fs.String("rpc-timeout", cfg.RPCTimeout, "Remote platform call timeout")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level (debug/info/warn/error)")
	logFormat := fs.String("log-format", cfg.LogFormat, "Log format (auto/text/json)")
	ginMode := fs.String("gin-mode", cfg.GinMode, "Gin mode (debug/release/test)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.CatalogDir = strings.TrimSpace(*catalogDir)
	cfg.Platform = strings.ToLower(strings.TrimSpace(*platform))
	cfg.DBURL = strings.TrimSpace(*db)
	if b, ok := parseBool(*auto); ok {
		cfg.AutoMigrate = b
	}
	cfg.PlatformURL = strings.TrimSpace(*platformURL)
	cfg.RPCTimeout = strings.TrimSpace(*rpcTimeout)
	cfg.LogLevel = strings.TrimSpace(*logLevel)
	cfg.LogFormat = strings.TrimSpace(*logFormat)
	cfg.GinMode = strings.TrimSpace(*ginMode)

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Platform {
	case PlatformMemory:
	case PlatformPG:
		if c.DBURL == "" {
			return fmt.Errorf("platform=pg requires dbUrl")
		}
	case PlatformHTTP:
		if c.PlatformURL == "" {
			return fmt.Errorf("platform=http requires platformUrl")
		}
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	if _, err := time.ParseDuration(c.RPCTimeout); err != nil {
		return fmt.Errorf("rpcTimeout: %w", err)
	}
	switch c.LogFormat {
	case "auto", "tint", "text", "json":
	default:
		return fmt.Errorf("unknown logFormat %q", c.LogFormat)
	}
	return nil
}

// Timeout — rpcTimeout как time.Duration (после Validate ошибки нет)
func (c Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.RPCTimeout)
	return d
}

func (c Config) Addr() string { return ":" + c.Port }

// configArg находит -config до разбора остальных флагов: JSON — нижний слой
func configArg(args []string, fallback string) string {
	for i, a := range args {
		if !strings.HasPrefix(a, "-") {
			continue
		}
		name := strings.TrimLeft(a, "-")
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
	}
	return fallback
}
