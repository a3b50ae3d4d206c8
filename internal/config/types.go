// Package config defines the configuration model and the layered
// loading that produces it: built-in defaults, then the user file under
// ~/.config/depctl, then the project file ./.depctl/config.yaml.
package config

import "time"

// Config is the root configuration document.
type Config struct {
	Orchestration  OrchestrationConfig      `yaml:"orchestration"`
	Adapters       map[string]AdapterConfig `yaml:"adapters" validate:"dive"`
	Initialization InitializationConfig     `yaml:"initialization"`
	Health         HealthConfig             `yaml:"health"`
	Runtime        RuntimeConfig            `yaml:"runtime"`
	Logging        LoggingConfig            `yaml:"logging"`
}

// OrchestrationConfig drives dependency evaluation and provisioning.
// Provisioning is the default mode for services that set none.
type OrchestrationConfig struct {
	Provisioning     string                   `yaml:"provisioning" validate:"omitempty,oneof=auto always never disabled"`
	DetectionTimeout time.Duration            `yaml:"detectionTimeout" validate:"gt=0"`
	Services         map[string]ServiceConfig `yaml:"services" validate:"dive"`
}

// ServiceConfig configures one service dependency.
type ServiceConfig struct {
	Mode      string               `yaml:"mode" validate:"omitempty,oneof=auto always never disabled"`
	URI       string               `yaml:"uri"`
	Endpoints []EndpointConfig     `yaml:"endpoints" validate:"dive"`
	Container *ContainerDescriptor `yaml:"container"`
}

// EndpointConfig is one host address probed during discovery.
type EndpointConfig struct {
	Address string `yaml:"address" validate:"required"`
	Port    int    `yaml:"port" validate:"required,gt=0,lte=65535"`
}

// ContainerDescriptor mirrors the provisioning descriptor in YAML form.
type ContainerDescriptor struct {
	Image         string            `yaml:"image" validate:"required"`
	Port          int               `yaml:"port" validate:"required,gt=0,lte=65535"`
	Priority      int               `yaml:"priority"`
	HealthCmd     []string          `yaml:"healthCmd"`
	HealthTimeout time.Duration     `yaml:"healthTimeout"`
	Env           map[string]string `yaml:"env"`
	Volumes       []string          `yaml:"volumes"`
}

// AdapterConfig configures one adapter.
type AdapterConfig struct {
	Readiness ReadinessConfig `yaml:"readiness"`
	Database  string          `yaml:"database"`
}

// ReadinessConfig is the YAML shape of an adapter's gate configuration.
// GatingEnabled is a pointer so "absent" and "false" stay distinct when
// layering.
type ReadinessConfig struct {
	Policy        string        `yaml:"policy" validate:"omitempty,oneof=immediate hold degrade"`
	Timeout       time.Duration `yaml:"timeout"`
	GatingEnabled *bool         `yaml:"gatingEnabled"`
}

// InitializationConfig bounds the coordinated startup.
type InitializationConfig struct {
	GlobalTimeout time.Duration `yaml:"globalTimeout" validate:"gt=0"`
	Retry         RetryConfig   `yaml:"retry"`
}

// RetryConfig is the initializer retry schedule.
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initialInterval" validate:"gt=0"`
	MaxInterval     time.Duration `yaml:"maxInterval" validate:"gt=0"`
	Multiplier      float64       `yaml:"multiplier" validate:"gt=1"`
	MaxRetries      uint64        `yaml:"maxRetries"`
}

// HealthConfig configures the health and metrics HTTP server.
type HealthConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"gt=0,lte=65535"`
}

// RuntimeConfig selects the container runtime binary.
type RuntimeConfig struct {
	Binary string `yaml:"binary" validate:"omitempty,oneof=docker podman"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}
