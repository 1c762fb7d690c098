// Package config holds the batch run configuration and its validation rules.
// Exactly one inference variant (direct model invocation or workflow
// endpoint) must be fully configured; everything is validated before any
// record is read.
package config

import (
	"fmt"
	"strings"
)

// DefaultMaxWorkers bounds in-flight requests when no worker count is given.
const DefaultMaxWorkers = 10

// Variant identifies the configured inference client.
type Variant string

const (
	// VariantModel invokes a model directly through the Bedrock runtime.
	VariantModel Variant = "model"
	// VariantWorkflow posts records to an external workflow endpoint.
	VariantWorkflow Variant = "workflow"
)

// ConfigError reports an invalid configuration. It is fatal and raised before
// any processing begins.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// ModelConfig holds the direct model-invocation parameters.
type ModelConfig struct {
	ID        string `mapstructure:"id" json:"id"`
	Region    string `mapstructure:"region" json:"region"`
	AccessKey string `mapstructure:"access_key" json:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key,omitempty"`
}

func (m ModelConfig) present() bool {
	return m.ID != "" || m.Region != "" || m.AccessKey != "" || m.SecretKey != ""
}

// WorkflowConfig holds the workflow-endpoint parameters.
type WorkflowConfig struct {
	URL    string `mapstructure:"url" json:"url"`
	APIKey string `mapstructure:"api_key" json:"api_key"`
}

func (w WorkflowConfig) present() bool {
	return w.URL != "" || w.APIKey != ""
}

// ServerConfig contains job-server settings for serve mode.
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// Config describes one batch run: where records come from, where annotated
// results go, how hard the endpoint may be driven, and which inference
// variant performs the call.
type Config struct {
	Inputs     []string       `mapstructure:"inputs" json:"inputs"`
	OutputRoot string         `mapstructure:"output" json:"output"`
	RPM        int            `mapstructure:"rpm" json:"rpm"`
	MaxWorkers int            `mapstructure:"max_workers" json:"max_workers"`
	Model      ModelConfig    `mapstructure:"model" json:"model,omitempty"`
	Workflow   WorkflowConfig `mapstructure:"workflow" json:"workflow,omitempty"`
	Server     ServerConfig   `mapstructure:"server" json:"-"`
	Logging    LoggingConfig  `mapstructure:"logging" json:"-"`
}

// Validate checks the run parameters and the variant selection. Variant
// detection goes by which fields are set after decoding, never by sentinel
// values: an absent parameter is an empty field, full stop.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return &ConfigError{Reason: "at least one input path is required"}
	}
	for _, input := range c.Inputs {
		if strings.TrimSpace(input) == "" {
			return &ConfigError{Reason: "input paths must not be empty"}
		}
	}
	if strings.TrimSpace(c.OutputRoot) == "" {
		return &ConfigError{Reason: "output root is required"}
	}
	if c.RPM < 1 {
		return &ConfigError{Reason: fmt.Sprintf("rpm must be at least 1, got %d", c.RPM)}
	}
	if c.MaxWorkers < 1 {
		return &ConfigError{Reason: fmt.Sprintf("max_workers must be at least 1, got %d", c.MaxWorkers)}
	}

	if _, err := c.Variant(); err != nil {
		return err
	}
	return nil
}

// Variant resolves the configured inference variant. Both variants present,
// neither present, or a partially filled variant are configuration errors.
func (c *Config) Variant() (Variant, error) {
	modelSet := c.Model.present()
	workflowSet := c.Workflow.present()

	switch {
	case modelSet && workflowSet:
		return "", &ConfigError{Reason: "model and workflow parameters are mutually exclusive"}
	case !modelSet && !workflowSet:
		return "", &ConfigError{Reason: "either model or workflow parameters are required"}
	case modelSet:
		if c.Model.ID == "" {
			return "", &ConfigError{Reason: "model.id is required for direct model invocation"}
		}
		if c.Model.Region == "" {
			return "", &ConfigError{Reason: "model.region is required for direct model invocation"}
		}
		return VariantModel, nil
	default:
		if c.Workflow.URL == "" {
			return "", &ConfigError{Reason: "workflow.url is required for workflow invocation"}
		}
		if c.Workflow.APIKey == "" {
			return "", &ConfigError{Reason: "workflow.api_key is required for workflow invocation"}
		}
		return VariantWorkflow, nil
	}
}
