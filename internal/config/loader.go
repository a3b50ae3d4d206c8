package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/depctl"
	projectConfigDir = ".depctl"
	configFileName   = "config.yaml"
)

var validate = validator.New()

// LoadConfig loads the configuration by layering default, user, and
// project settings, then validates the result.
func LoadConfig() (Config, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. Overlay user-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// Log this error but don't fail; user config is optional
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

	// 3. Overlay project-specific configuration
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

	if err := Validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks a fully-merged configuration. It runs after layering
// so partial overlay files never fail validation on fields the defaults
// supply.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// ProjectConfigPath is the project-level file watched for live
// reconfiguration. The bool is false when the working directory cannot
// be determined.
func ProjectConfigPath() (string, bool) {
	p, err := getProjectConfigPath()
	return p, err == nil
}

// loadConfigFromFile loads a Config overlay from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Scalars
// override when set; maps merge per key.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.Orchestration.Provisioning != "" {
		merged.Orchestration.Provisioning = overlay.Orchestration.Provisioning
	}
	if overlay.Orchestration.DetectionTimeout != 0 {
		merged.Orchestration.DetectionTimeout = overlay.Orchestration.DetectionTimeout
	}
	if len(overlay.Orchestration.Services) > 0 {
		if merged.Orchestration.Services == nil {
			merged.Orchestration.Services = make(map[string]ServiceConfig)
		}
		for name, svc := range overlay.Orchestration.Services {
			merged.Orchestration.Services[name] = mergeService(merged.Orchestration.Services[name], svc)
		}
	}

	if len(overlay.Adapters) > 0 {
		if merged.Adapters == nil {
			merged.Adapters = make(map[string]AdapterConfig)
		}
		for name, ac := range overlay.Adapters {
			merged.Adapters[name] = mergeAdapter(merged.Adapters[name], ac)
		}
	}

	if overlay.Initialization.GlobalTimeout != 0 {
		merged.Initialization.GlobalTimeout = overlay.Initialization.GlobalTimeout
	}
	if overlay.Initialization.Retry.InitialInterval != 0 {
		merged.Initialization.Retry.InitialInterval = overlay.Initialization.Retry.InitialInterval
	}
	if overlay.Initialization.Retry.MaxInterval != 0 {
		merged.Initialization.Retry.MaxInterval = overlay.Initialization.Retry.MaxInterval
	}
	if overlay.Initialization.Retry.Multiplier != 0 {
		merged.Initialization.Retry.Multiplier = overlay.Initialization.Retry.Multiplier
	}
	if overlay.Initialization.Retry.MaxRetries != 0 {
		merged.Initialization.Retry.MaxRetries = overlay.Initialization.Retry.MaxRetries
	}

	if overlay.Health.Port != 0 {
		merged.Health.Port = overlay.Health.Port
	}
	if overlay.Runtime.Binary != "" {
		merged.Runtime.Binary = overlay.Runtime.Binary
	}
	if overlay.Logging.Level != "" {
		merged.Logging.Level = overlay.Logging.Level
	}
	if overlay.Logging.Format != "" {
		merged.Logging.Format = overlay.Logging.Format
	}

	return merged
}

func mergeService(base, overlay ServiceConfig) ServiceConfig {
	merged := base
	if overlay.Mode != "" {
		merged.Mode = overlay.Mode
	}
	if overlay.URI != "" {
		merged.URI = overlay.URI
	}
	if len(overlay.Endpoints) > 0 {
		merged.Endpoints = overlay.Endpoints
	}
	if overlay.Container != nil {
		merged.Container = overlay.Container
	}
	return merged
}

func mergeAdapter(base, overlay AdapterConfig) AdapterConfig {
	merged := base
	if overlay.Database != "" {
		merged.Database = overlay.Database
	}
	if overlay.Readiness.Policy != "" {
		merged.Readiness.Policy = overlay.Readiness.Policy
	}
	if overlay.Readiness.Timeout != 0 {
		merged.Readiness.Timeout = overlay.Readiness.Timeout
	}
	if overlay.Readiness.GatingEnabled != nil {
		merged.Readiness.GatingEnabled = overlay.Readiness.GatingEnabled
	}
	return merged
}
