package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvPurchaseHost, EnvQueryHost, EnvGatewayHost, EnvALBHost, EnvVenuesFile, EnvEventsFile, "LOAD_CONFIG_FILE", "CONFIG_FILE"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidateDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "test:\n  users: 10\n")

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, ScenarioSequential, cfg.Test.Scenario)
	assert.Equal(t, "Event1", cfg.Test.EventID)
	assert.Equal(t, "Venue1", cfg.Test.VenueID)
	assert.Equal(t, 10, cfg.Test.Users)
	assert.Equal(t, 78, cfg.Test.SeatsPerUser)
	assert.InDelta(t, 0.2, cfg.Test.DuplicateRatio, 1e-9)
	assert.InDelta(t, 0.5, cfg.Test.VerifyProbability, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Test.ThinkTime)
	assert.Equal(t, 500*time.Millisecond, cfg.Test.WaitTime)
	assert.Equal(t, 30*time.Second, cfg.Target.RequestTimeout)
	assert.InDelta(t, 2.0, cfg.Test.BurstMultiplier, 1e-9)

	assert.Equal(t, 1, cfg.Deterministic.ZoneID)
	assert.Equal(t, 6, cfg.Deterministic.StartColumn)
	assert.Equal(t, 100, cfg.Deterministic.TotalSeats)
	assert.Equal(t, 2, cfg.Deterministic.SeatsPerUser)

	assert.Equal(t, ":2112", cfg.Metrics.ListenAddress)
	assert.Equal(t, "ticket_load_test", cfg.Metrics.Namespace)
	assert.Equal(t, "text", cfg.Report.Format)
}

func TestLoadAndValidateExplicitZero(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
test:
  duplicateRatio: 0
  verifyProbability: 0
  thinkTime: 0s
`)

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Test.DuplicateRatio)
	assert.Zero(t, cfg.Test.VerifyProbability)
	assert.Zero(t, cfg.Test.ThinkTime)
}

func TestLoadAndValidateErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "unknown scenario",
			content: "test:\n  scenario: burst\n",
			errMsg:  "must be one of",
		},
		{
			name:    "duplicate ratio above one",
			content: "test:\n  duplicateRatio: 1.5\n",
			errMsg:  "DuplicateRatio",
		},
		{
			name:    "negative seats per user",
			content: "test:\n  seatsPerUser: -1\n",
			errMsg:  "SeatsPerUser",
		},
		{
			name:    "invalid host",
			content: "target:\n  purchaseHost: not a url\n",
			errMsg:  "must be an absolute URL",
		},
		{
			name:    "deterministic cap above total",
			content: "test:\n  scenario: deterministic\ndeterministic:\n  totalSeats: 1\n  seatsPerUser: 2\n",
			errMsg:  "exceeds totalSeats",
		},
		{
			name:    "deterministic seats per user above two",
			content: "deterministic:\n  seatsPerUser: 3\n",
			errMsg:  "must be less than or equal to 2",
		},
		{
			name:    "unparseable yaml",
			content: "test: [\n",
			errMsg:  "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAndValidate(writeFile(t, "config.yaml", tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAndValidate(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestLoadAndValidateWithOverrides(t *testing.T) {
	clearEnv(t)

	t.Run("override wins over file", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "test:\n  scenario: sequential\n")
		cfg, err := LoadAndValidateWithOverrides(path, map[string]any{"test.scenario": ScenarioDeterministic})
		require.NoError(t, err)
		assert.Equal(t, ScenarioDeterministic, cfg.Test.Scenario)
	})

	t.Run("override is validated", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "test:\n  scenario: sequential\n")
		_, err := LoadAndValidateWithOverrides(path, map[string]any{"test.scenario": "burst"})
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "must be one of")
	})

	t.Run("switching scenario runs cross-field checks", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "deterministic:\n  totalSeats: 1\n  seatsPerUser: 2\n")

		_, err := LoadAndValidate(path)
		require.NoError(t, err, "the cap only applies to the deterministic scenario")

		_, err = LoadAndValidateWithOverrides(path, map[string]any{"test.scenario": ScenarioDeterministic})
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "exceeds totalSeats")
	})
}

func TestLoadAndValidateConfigFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "custom.yaml", "test:\n  users: 3\n")
	t.Setenv("LOAD_CONFIG_FILE", path)

	cfg, err := LoadAndValidate("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Test.Users)
}

func TestHostPriority(t *testing.T) {
	tests := []struct {
		name         string
		target       TargetConfig
		env          map[string]string
		wantPurchase string
		wantQuery    string
	}{
		{
			name:         "defaults",
			wantPurchase: DefaultPurchaseHost,
			wantQuery:    DefaultQueryHost,
		},
		{
			name:         "gateway applies to both",
			env:          map[string]string{EnvALBHost: "http://alb.example.com/"},
			wantPurchase: "http://alb.example.com",
			wantQuery:    "http://alb.example.com",
		},
		{
			name:         "gateway wins over alb",
			env:          map[string]string{EnvGatewayHost: "http://gw", EnvALBHost: "http://alb"},
			wantPurchase: "http://gw",
			wantQuery:    "http://gw",
		},
		{
			name:         "per service host wins",
			target:       TargetConfig{GatewayHost: "http://gw"},
			env:          map[string]string{EnvPurchaseHost: "http://purchase:8080//"},
			wantPurchase: "http://purchase:8080",
			wantQuery:    "http://gw",
		},
		{
			name:         "env overrides file",
			target:       TargetConfig{QueryHost: "http://file-query"},
			env:          map[string]string{EnvQueryHost: "http://env-query"},
			wantPurchase: DefaultPurchaseHost,
			wantQuery:    "http://env-query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Target: tt.target}
			ApplyEnv(cfg, func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.wantPurchase, cfg.PurchaseHost())
			assert.Equal(t, tt.wantQuery, cfg.QueryHost())
		})
	}
}

func TestResourceFiles(t *testing.T) {
	cfg := &Config{}
	SetDefaults(cfg)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "resources", "purchase-service", "venues.yml"), cfg.VenuesFile())
	assert.Equal(t, filepath.Join(wd, "resources", "purchase-service", "events.yml"), cfg.EventsFile())

	ApplyEnv(cfg, func(k string) string {
		if k == EnvVenuesFile {
			return "other/venues.yml"
		}
		return ""
	})
	assert.Equal(t, filepath.Join(wd, "other", "venues.yml"), cfg.VenuesFile())
	assert.True(t, filepath.IsAbs(cfg.EventsFile()))
}

func TestLoadVenueLayout(t *testing.T) {
	path := writeFile(t, "venues.yml", `
venues:
  map:
    Venue1:
      zones:
        zone-count: 2
        row-count: 3
        col-count: 4
`)

	layout, err := LoadVenueLayout(path, "Venue1")
	require.NoError(t, err)
	assert.Equal(t, seating.VenueLayout{ZoneCount: 2, RowCount: 3, ColCount: 4}, layout)
	assert.Equal(t, 24, layout.Capacity())

	// ids keep their case
	_, err = LoadVenueLayout(path, "venue1")
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = LoadVenueLayout(filepath.Join(t.TempDir(), "missing.yml"), "Venue1")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "config file not found")

	_, err = LoadVenueLayout("", "Venue1")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadVenuesEmptyDocument(t *testing.T) {
	venues, err := LoadVenues(writeFile(t, "venues.yml", ""))
	require.NoError(t, err)
	assert.Empty(t, venues)

	_, err = LoadVenues(writeFile(t, "venues.yml", "venues: {map: [\n"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadEvents(t *testing.T) {
	path := writeFile(t, "events.yml", `
events:
  auto-initialize: true
  list:
    - eventId: Event1
      name: Opening Night
      type: concert
      date: "2025-12-31T20:00:00Z"
      venueId: Venue1
      enabled: true
    - eventId: Event2
      venueId: Venue2
`)

	events, err := LoadEvents(path)
	require.NoError(t, err)
	assert.True(t, events.AutoInitialize)
	require.Len(t, events.List, 2)

	ev, ok := events.Find("Event1")
	require.True(t, ok)
	assert.Equal(t, "Venue1", ev.VenueID)
	assert.True(t, ev.Enabled)

	ev, ok = events.Find("Event2")
	require.True(t, ok)
	assert.False(t, ev.Enabled)

	_, ok = events.Find("Event3")
	assert.False(t, ok)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even when empty
	require.NoError(t, os.Unsetenv(EnvGatewayHost))
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))

	path := writeFile(t, ".env", "GATEWAY_HOST=http://from-dotenv\n")
	require.NoError(t, LoadDotEnv(path))

	cfg := &Config{}
	ApplyEnv(cfg, os.Getenv)
	assert.Equal(t, "http://from-dotenv", cfg.PurchaseHost())
}
