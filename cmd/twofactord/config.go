package main

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	driverMemory     = "memory"
	driverPostgres   = "postgres"
	driverMongo      = "mongo"
	driverRedis      = "redis"
	driverSlog       = "slog"
	driverOpenSearch = "opensearch"
)

type appConfig struct {
	Env            string `env:"APP_ENV" envDefault:"development"`
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"memory"`
	ThrottleDriver string `env:"THROTTLE_DRIVER" envDefault:"memory"`
	AuditDriver    string `env:"AUDIT_DRIVER" envDefault:"slog"`

	RoutePrefix    string   `env:"TWOFACTOR_ROUTE_PREFIX" envDefault:"/2fa"`
	QRCodeSize     int      `env:"TWOFACTOR_QR_SIZE" envDefault:"256"`
	TrustedProxies []string `env:"HTTP_TRUSTED_PROXIES"`
	TrustedHeaders []string `env:"HTTP_TRUSTED_HEADERS" envDefault:"X-Forwarded-For"`

	AttemptRetention time.Duration `env:"TWOFACTOR_ATTEMPT_RETENTION" envDefault:"720h"`
	PruneInterval    time.Duration `env:"TWOFACTOR_PRUNE_INTERVAL" envDefault:"1h"`
	HealthTimeout    time.Duration `env:"HEALTHCHECK_TIMEOUT" envDefault:"3s"`
}

// Validate is called by config.Load.
func (c *appConfig) Validate() error {
	var errs []error
	if !slices.Contains([]string{driverMemory, driverPostgres, driverMongo}, c.StoreDriver) {
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unsupported value %q", c.StoreDriver))
	}
	if !slices.Contains([]string{driverMemory, driverRedis}, c.ThrottleDriver) {
		errs = append(errs, fmt.Errorf("THROTTLE_DRIVER: unsupported value %q", c.ThrottleDriver))
	}
	if !slices.Contains([]string{driverMemory, driverSlog, driverOpenSearch}, c.AuditDriver) {
		errs = append(errs, fmt.Errorf("AUDIT_DRIVER: unsupported value %q", c.AuditDriver))
	}
	if c.RoutePrefix == "" || c.RoutePrefix[0] != '/' {
		errs = append(errs, errors.New("TWOFACTOR_ROUTE_PREFIX: must start with /"))
	}
	if c.PruneInterval <= 0 {
		errs = append(errs, errors.New("TWOFACTOR_PRUNE_INTERVAL: must be positive"))
	}
	if c.AttemptRetention <= 0 {
		errs = append(errs, errors.New("TWOFACTOR_ATTEMPT_RETENTION: must be positive"))
	}
	if c.HealthTimeout <= 0 {
		errs = append(errs, errors.New("HEALTHCHECK_TIMEOUT: must be positive"))
	}
	return errors.Join(errs...)
}
