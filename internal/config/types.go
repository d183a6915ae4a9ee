package config

import "fmt"

// DefaultEndpoint is the CRM's MCP endpoint.
const DefaultEndpoint = "https://services.leadconnectorhq.com/mcp/"

// Default check thresholds, overridable per location.
const (
	DefaultStaleLeadHours       = 48
	DefaultStuckOpportunityDays = 7
	DefaultResponseTimeMinutes  = 30
)

// ConfigError reports a missing or unresolvable required setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Thresholds are the per-location knobs for the monitoring checks.
type Thresholds struct {
	StaleLeadHours       int `yaml:"staleLeadHours,omitempty"`
	StuckOpportunityDays int `yaml:"stuckOpportunityDays,omitempty"`
	ResponseTimeMinutes  int `yaml:"responseTimeMinutes,omitempty"`
}

// Location binds one CRM sub-account: its credentials and thresholds.
// Token and LocationID may be written as ${ENV_NAME} in the YAML; the
// loader resolves them so the rest of leadwatch only sees literals.
type Location struct {
	Name       string     `yaml:"name"`
	Alias      string     `yaml:"alias,omitempty"`
	Token      string     `yaml:"token"`
	LocationID string     `yaml:"locationId"`
	Thresholds Thresholds `yaml:"thresholds,omitempty"`
}

// GlobalSettings apply across locations.
type GlobalSettings struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`
}

// Config is the top-level configuration structure for leadwatch.
type Config struct {
	GlobalSettings GlobalSettings `yaml:"globalSettings"`
	Locations      []Location     `yaml:"locations"`
}

// Endpoint returns the configured endpoint or the CRM default.
func (c Config) Endpoint() string {
	if c.GlobalSettings.Endpoint != "" {
		return c.GlobalSettings.Endpoint
	}
	return DefaultEndpoint
}

// LocationByName finds a location by name or alias.
func (c Config) LocationByName(name string) (Location, bool) {
	for _, loc := range c.Locations {
		if loc.Name == name || (loc.Alias != "" && loc.Alias == name) {
			return loc, true
		}
	}
	return Location{}, false
}

// withDefaults fills unset thresholds.
func (t Thresholds) withDefaults() Thresholds {
	if t.StaleLeadHours <= 0 {
		t.StaleLeadHours = DefaultStaleLeadHours
	}
	if t.StuckOpportunityDays <= 0 {
		t.StuckOpportunityDays = DefaultStuckOpportunityDays
	}
	if t.ResponseTimeMinutes <= 0 {
		t.ResponseTimeMinutes = DefaultResponseTimeMinutes
	}
	return t
}
