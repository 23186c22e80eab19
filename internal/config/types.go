package config

import "time"

const (
	ScenarioSequential    = "sequential"
	ScenarioDeterministic = "deterministic"
)

// TargetConfig represents the services under test
type TargetConfig struct {
	PurchaseHost       string        `yaml:"purchaseHost" mapstructure:"purchaseHost" validate:"omitempty,url"`
	QueryHost          string        `yaml:"queryHost" mapstructure:"queryHost" validate:"omitempty,url"`
	GatewayHost        string        `yaml:"gatewayHost" mapstructure:"gatewayHost" validate:"omitempty,url"` // Applied to both services when per-service hosts are unset
	RequestTimeout     time.Duration `yaml:"requestTimeout" mapstructure:"requestTimeout" validate:"gte=0"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify" mapstructure:"insecureSkipVerify"`
}

// ResourcesConfig locates the venue and event definition files
type ResourcesConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Service    string `yaml:"service" mapstructure:"service"`
	VenuesFile string `yaml:"venuesFile" mapstructure:"venuesFile"`
	EventsFile string `yaml:"eventsFile" mapstructure:"eventsFile"`
}

// TestConfig represents load shaping for the randomized purchase scenario
type TestConfig struct {
	Scenario          string        `yaml:"scenario" mapstructure:"scenario" validate:"required,oneof=sequential deterministic"`
	EventID           string        `yaml:"eventId" mapstructure:"eventId" validate:"required"`
	VenueID           string        `yaml:"venueId" mapstructure:"venueId" validate:"required"`
	Users             int           `yaml:"users" mapstructure:"users" validate:"required,gte=1"`
	SpawnRate         float64       `yaml:"spawnRate" mapstructure:"spawnRate" validate:"gte=0"` // Users started per second (0: all at once)
	SeatsPerUser      int           `yaml:"seatsPerUser" mapstructure:"seatsPerUser" validate:"required,gte=1"`
	DuplicateRatio    float64       `yaml:"duplicateRatio" mapstructure:"duplicateRatio" validate:"gte=0,lte=1"`
	VerifyProbability float64       `yaml:"verifyProbability" mapstructure:"verifyProbability" validate:"gte=0,lte=1"`
	ThinkTime         time.Duration `yaml:"thinkTime" mapstructure:"thinkTime" validate:"gte=0"`
	WaitTime          time.Duration `yaml:"waitTime" mapstructure:"waitTime" validate:"gte=0"`
	TargetRPS         float64       `yaml:"targetRPS" mapstructure:"targetRPS" validate:"gte=0"` // Shared purchase rate across all users (0: unlimited)
	BurstMultiplier   float64       `yaml:"burstMultiplier" mapstructure:"burstMultiplier" validate:"omitempty,gt=0"`
	Duration          time.Duration `yaml:"duration" mapstructure:"duration" validate:"gte=0"`
	Seed              int64         `yaml:"seed" mapstructure:"seed"`
}

// DeterministicConfig represents the fixed-offset smoke test
type DeterministicConfig struct {
	ZoneID            int     `yaml:"zoneId" mapstructure:"zoneId" validate:"gte=1"`
	StartRow          int     `yaml:"startRow" mapstructure:"startRow" validate:"gte=0"` // 0-based, 0 is row A
	StartColumn       int     `yaml:"startColumn" mapstructure:"startColumn" validate:"gte=1"`
	TotalSeats        int     `yaml:"totalSeats" mapstructure:"totalSeats" validate:"gte=1"`
	SeatsPerUser      int     `yaml:"seatsPerUser" mapstructure:"seatsPerUser" validate:"gte=1,lte=2"` // Hard cap of two seats per user
	VerifyProbability float64 `yaml:"verifyProbability" mapstructure:"verifyProbability" validate:"gte=0,lte=1"`
}

// MetricsConfig represents the Prometheus exposition settings
type MetricsConfig struct {
	ListenAddress string `yaml:"listenAddress" mapstructure:"listenAddress"`
	Namespace     string `yaml:"namespace" mapstructure:"namespace"`
}

// ReportConfig represents the end-of-run report
type ReportConfig struct {
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
	Output string `yaml:"output" mapstructure:"output"`
}

// Config represents the YAML configuration structure
type Config struct {
	Target        TargetConfig        `yaml:"target" mapstructure:"target"`
	Resources     ResourcesConfig     `yaml:"resources" mapstructure:"resources"`
	Test          TestConfig          `yaml:"test" mapstructure:"test" validate:"required"`
	Deterministic DeterministicConfig `yaml:"deterministic" mapstructure:"deterministic"`
	Metrics       MetricsConfig       `yaml:"metrics" mapstructure:"metrics"`
	Report        ReportConfig        `yaml:"report" mapstructure:"report"`
}

// Venue represents one entry of the venues.yml map
type Venue struct {
	Zones ZonesConfig `yaml:"zones"`
}

// ZonesConfig holds the seat dimensions of a venue
type ZonesConfig struct {
	ZoneCount int `yaml:"zone-count"`
	RowCount  int `yaml:"row-count"`
	ColCount  int `yaml:"col-count"`
}

// Event represents one entry of the events.yml list
type Event struct {
	EventID string `yaml:"eventId"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Date    string `yaml:"date"`
	VenueID string `yaml:"venueId"`
	Enabled bool   `yaml:"enabled"`
}

// Events represents the top-level events section
type Events struct {
	AutoInitialize bool    `yaml:"auto-initialize"`
	List           []Event `yaml:"list"`
}
