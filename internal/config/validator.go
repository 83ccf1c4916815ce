package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	validate := validator.New()

	// Register custom validation for source URLs: http/https only, with a host.
	_ = validate.RegisterValidation("sourceurl", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		u, err := url.Parse(raw)
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})

	// Register custom validation for LogLevel
	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		level := strings.ToLower(fl.Field().String())
		switch level {
		case "", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	// Register custom validation for LogFormat
	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		format := strings.ToLower(fl.Field().String())
		switch format {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	if err := validate.Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			var messages []string
			for _, e := range errs {
				msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", e.StructNamespace(), e.Tag())
				if e.Param() != "" {
					msg += fmt.Sprintf(" (expected: %s)", e.Param())
				}
				if e.Value() != nil && e.Value() != "" {
					msg += fmt.Sprintf(", actual: '%v'", e.Value())
				}
				messages = append(messages, msg)
			}
			return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
		}
		return fmt.Errorf("configuration validation error: %w", err)
	}

	// Cross-field rules the struct tags cannot express.
	if cfg.HostsConfig.BackupBeforeUpdate && cfg.HostsConfig.BackupPath == "" {
		return fmt.Errorf("configuration validation failed: hosts.backup_path is required when hosts.backup_before_update is enabled")
	}
	if cfg.SchedulerConfig.Backoff() >= cfg.SchedulerConfig.Interval() {
		return fmt.Errorf("configuration validation failed: scheduler.backoff_minutes (%d) must be shorter than scheduler.update_interval_hours (%d)",
			cfg.SchedulerConfig.BackoffMinutes, cfg.SchedulerConfig.UpdateIntervalHours)
	}
	if cfg.ServerConfig.Enabled && cfg.ServerConfig.ListenAddr == "" {
		return fmt.Errorf("configuration validation failed: server.listen_addr is required when the status server is enabled")
	}

	return nil
}
