package config

import (
	"path/filepath"
	"strings"
)

const (
	EnvPurchaseHost = "PURCHASE_SERVICE_HOST"
	EnvQueryHost    = "QUERY_SERVICE_HOST"
	EnvGatewayHost  = "GATEWAY_HOST"
	EnvALBHost      = "ALB_HOST"
	EnvVenuesFile   = "VENUES_FILE"
	EnvEventsFile   = "EVENTS_FILE"

	DefaultPurchaseHost = "http://localhost:8081"
	DefaultQueryHost    = "http://localhost:8082"
)

// ApplyEnv folds environment overrides into cfg. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if h := getenv(EnvPurchaseHost); h != "" {
		cfg.Target.PurchaseHost = h
	}
	if h := getenv(EnvQueryHost); h != "" {
		cfg.Target.QueryHost = h
	}
	if h := getenv(EnvGatewayHost); h != "" {
		cfg.Target.GatewayHost = h
	} else if h := getenv(EnvALBHost); h != "" {
		cfg.Target.GatewayHost = h
	}

	if p := getenv(EnvVenuesFile); p != "" {
		cfg.Resources.VenuesFile = p
	}
	if p := getenv(EnvEventsFile); p != "" {
		cfg.Resources.EventsFile = p
	}
}

// PurchaseHost returns the effective purchase service base URL.
//
// Priority: purchase host > gateway host > localhost default
func (c *Config) PurchaseHost() string {
	return firstHost(c.Target.PurchaseHost, c.Target.GatewayHost, DefaultPurchaseHost)
}

// QueryHost returns the effective query service base URL.
//
// Priority: query host > gateway host > localhost default
func (c *Config) QueryHost() string {
	return firstHost(c.Target.QueryHost, c.Target.GatewayHost, DefaultQueryHost)
}

// VenuesFile returns the absolute path of venues.yml
func (c *Config) VenuesFile() string {
	return c.resourceFile(c.Resources.VenuesFile, "venues.yml")
}

// EventsFile returns the absolute path of events.yml
func (c *Config) EventsFile() string {
	return c.resourceFile(c.Resources.EventsFile, "events.yml")
}

func (c *Config) resourceFile(override, name string) string {
	path := override
	if path == "" {
		path = filepath.Join(c.Resources.Dir, c.Resources.Service, name)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func firstHost(hosts ...string) string {
	for _, h := range hosts {
		if h = normalizeHost(h); h != "" {
			return h
		}
	}
	return ""
}

func normalizeHost(host string) string {
	return strings.TrimRight(strings.TrimSpace(host), "/")
}
