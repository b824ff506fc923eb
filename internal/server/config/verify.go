package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yndnr/siege-leviathan/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServiceConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyBundle(&cfg.Bundle); err != nil {
		return err
	}
	if err := verifyTarget(&cfg.Target); err != nil {
		return err
	}
	if err := verifyReadiness(&cfg.Readiness); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("server.rate_burst must be at least 1 when rate limiting")
	}
	return nil
}

// verifyBundle checks only that a path is configured. The file itself may
// not exist yet; the readiness gate waits for it.
func verifyBundle(cfg *BundleSection) error {
	if cfg.Path == "" {
		return errors.New("bundle.path is required (LEVIATHAN_BUNDLE_PATH or CERT_BUNDLE)")
	}
	if cfg.Watch && cfg.Debounce <= 0 {
		return errors.New("bundle.debounce must be positive")
	}
	return nil
}

func verifyTarget(cfg *TargetSection) error {
	if cfg.URL == "" {
		return errors.New("target.url is required (LEVIATHAN_TARGET_URL or TARGET_URL)")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("target.url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("target.url must use https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("target.url has no host")
	}
	if cfg.Timeout <= 0 {
		return errors.New("target.timeout must be positive")
	}
	return nil
}

func verifyReadiness(cfg *ReadinessSection) error {
	if cfg.Interval <= 0 {
		return errors.New("readiness.interval must be positive")
	}
	if cfg.Timeout < 0 {
		return errors.New("readiness.timeout must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
	}
}
