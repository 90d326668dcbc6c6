package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultNameservers are the delegation targets handed out for new zones.
var DefaultNameservers = []string{
	"ns1.hostsdottxt.net.",
	"ns2.hostsdottxt.net.",
	"ns3.hostsdottxt.net.",
	"ns4.hostsdottxt.net.",
}

// Config is the process configuration, read once at startup.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	ListenAddr  string
	LogLevel    slog.Level

	SignupsEnabled bool
	TOTPEnabled    bool
	MetricsEnabled bool
	MetricsURL     string

	// RedisAddr selects the shared login limiter; empty keeps limits in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-Ip headers are believed.
	// Empty means clients are identified by their connection address only.
	TrustedProxies []netip.Prefix

	Nameservers        []string
	LoginRatePerMinute int
	BcryptCost         int
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment. All problems are reported together.
func FromEnv() (*Config, error) {
	var errs []error
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8000"),
		MetricsURL:    os.Getenv("METRICS_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		Nameservers:   DefaultNameservers,
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	var err error
	if cfg.SignupsEnabled, err = envBool("SIGNUPS_ENABLED"); err != nil {
		errs = append(errs, err)
	}
	if cfg.TOTPEnabled, err = envBool("TOTP_ENABLED"); err != nil {
		errs = append(errs, err)
	}
	if cfg.MetricsEnabled, err = envBool("METRICS_ENABLED"); err != nil {
		errs = append(errs, err)
	}
	if cfg.MetricsEnabled && cfg.MetricsURL == "" {
		errs = append(errs, errors.New("METRICS_URL is required when METRICS_ENABLED is set"))
	}

	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.LoginRatePerMinute, err = envInt("LOGIN_RATE_PER_MINUTE", 10); err != nil {
		errs = append(errs, err)
	} else if cfg.LoginRatePerMinute < 1 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MINUTE must be positive"))
	}
	if cfg.BcryptCost, err = envInt("BCRYPT_COST", 12); err != nil {
		errs = append(errs, err)
	} else if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if raw := os.Getenv("NAMESERVERS"); raw != "" {
		cfg.Nameservers = nil
		for _, ns := range strings.Split(raw, ",") {
			if ns = strings.TrimSpace(ns); ns != "" {
				cfg.Nameservers = append(cfg.Nameservers, domain.NormalizeFQDN(ns))
			}
		}
	}

	if cfg.TrustedProxies, err = parsePrefixes(os.Getenv("TRUSTED_PROXIES")); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// parsePrefixes reads a comma list of CIDRs or bare addresses.
func parsePrefixes(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out, nil
}
