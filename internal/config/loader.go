package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/leadwatch"
	projectConfigDir = ".leadwatch"
	configFileName   = "config.yaml"
)

// LoadConfig loads the leadwatch configuration by layering user and
// project settings, then validates and resolves credentials.
func LoadConfig() (Config, error) {
	var config Config

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional; don't fail.
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	if err := resolveAndValidate(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Locations
// with the same name replace each other; globals override field-wise.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.GlobalSettings.Endpoint != "" {
		merged.GlobalSettings.Endpoint = overlay.GlobalSettings.Endpoint
	}
	if overlay.GlobalSettings.LogLevel != "" {
		merged.GlobalSettings.LogLevel = overlay.GlobalSettings.LogLevel
	}

	index := make(map[string]int, len(merged.Locations))
	for i, loc := range merged.Locations {
		index[loc.Name] = i
	}
	for _, loc := range overlay.Locations {
		if i, exists := index[loc.Name]; exists {
			merged.Locations[i] = loc
		} else {
			merged.Locations = append(merged.Locations, loc)
		}
	}
	return merged
}

var envMarker = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// resolveValue expands a ${NAME} indirection marker from the process
// environment. Literal values pass through untouched.
func resolveValue(field, value string) (string, error) {
	m := envMarker.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return value, nil
	}
	resolved, ok := os.LookupEnv(m[1])
	if !ok || resolved == "" {
		return "", &ConfigError{Field: field, Reason: fmt.Sprintf("environment variable %s is not set", m[1])}
	}
	return resolved, nil
}

// resolveAndValidate expands credential indirections, applies threshold
// defaults, and rejects incomplete locations.
func resolveAndValidate(config *Config) error {
	if len(config.Locations) == 0 {
		return &ConfigError{Field: "locations", Reason: "no locations configured"}
	}
	for i := range config.Locations {
		loc := &config.Locations[i]
		if loc.Name == "" {
			return &ConfigError{Field: fmt.Sprintf("locations[%d].name", i), Reason: "required"}
		}
		if loc.Token == "" {
			return &ConfigError{Field: loc.Name + ".token", Reason: "required"}
		}
		if loc.LocationID == "" {
			return &ConfigError{Field: loc.Name + ".locationId", Reason: "required"}
		}

		token, err := resolveValue(loc.Name+".token", loc.Token)
		if err != nil {
			return err
		}
		loc.Token = token

		locationID, err := resolveValue(loc.Name+".locationId", loc.LocationID)
		if err != nil {
			return err
		}
		loc.LocationID = locationID

		loc.Thresholds = loc.Thresholds.withDefaults()
	}
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
