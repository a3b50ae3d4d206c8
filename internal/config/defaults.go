package config

import "time"

// GetDefaultConfig returns the built-in configuration every deployment
// starts from. User and project files overlay it.
func GetDefaultConfig() Config {
	return Config{
		Orchestration: OrchestrationConfig{
			Provisioning:     "auto",
			DetectionTimeout: 4 * time.Second,
			Services: map[string]ServiceConfig{
				"mongodb": {
					Mode: "auto",
					Endpoints: []EndpointConfig{
						{Address: "127.0.0.1", Port: 27017},
					},
					Container: &ContainerDescriptor{
						Image:         "mongo:7",
						Port:          27017,
						Priority:      10,
						HealthCmd:     []string{"mongosh", "--quiet", "--eval", "db.adminCommand('ping').ok"},
						HealthTimeout: 60 * time.Second,
						Env: map[string]string{
							"MONGO_INITDB_ROOT_USERNAME": "root",
							"MONGO_INITDB_ROOT_PASSWORD": "example",
						},
					},
				},
			},
		},
		Adapters: map[string]AdapterConfig{
			"mongodb": {
				Database: "app",
				Readiness: ReadinessConfig{
					Policy:  "hold",
					Timeout: 30 * time.Second,
				},
			},
		},
		Initialization: InitializationConfig{
			GlobalTimeout: 5 * time.Minute,
			Retry: RetryConfig{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     30 * time.Second,
				Multiplier:      2.0,
				MaxRetries:      8,
			},
		},
		Health: HealthConfig{
			Enabled: true,
			Port:    9464,
		},
		Runtime: RuntimeConfig{
			Binary: "docker",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
