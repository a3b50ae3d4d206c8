package orchestration

import "time"

// DependencyDescriptor is everything the container manager needs to
// provision one dependency. Descriptors come from configuration and are
// validated before the orchestrator runs.
type DependencyDescriptor struct {
	Name          string            `yaml:"name" validate:"required"`
	Image         string            `yaml:"image" validate:"required"`
	Port          int               `yaml:"port" validate:"required,gt=0,lte=65535"`
	Priority      int               `yaml:"priority"`
	HealthCmd     []string          `yaml:"healthCmd"`
	HealthTimeout time.Duration     `yaml:"healthTimeout"`
	Env           map[string]string `yaml:"env"`
	Volumes       []string          `yaml:"volumes"`
}
