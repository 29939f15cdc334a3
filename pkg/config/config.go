// Package config is config-first: the server, database, LLM provider,
// workspace, and rules sections are all defined in one YAML file and
// the runtime builds itself from it.
//
// Example config:
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//
//	database:
//	  driver: sqlite
//	  database: ./data/sheetrt.db
//
//	llm:
//	  provider: openai
//	  model: gpt-4o
//	  api_key: ${OPENAI_API_KEY}
//
//	workspace:
//	  root: ./workspace
//
//	rules:
//	  global_path: ./data/rules.yaml
package config

import "fmt"

// Config is the root configuration structure.
type Config struct {
	// Version of the config schema (e.g., "1").
	Version string `yaml:"version,omitempty"`

	Server     ServerConfig     `yaml:"server,omitempty"`
	Database   DatabaseConfig   `yaml:"database,omitempty"`
	LLM        LLMConfig        `yaml:"llm,omitempty"`
	Workspace  WorkspaceConfig  `yaml:"workspace,omitempty"`
	Rules      RulesConfig      `yaml:"rules,omitempty"`
	Checkpoint CheckpointConfig `yaml:"checkpoint,omitempty"`
	Logger     LoggerConfig     `yaml:"logger,omitempty"`
}

// SetDefaults applies default values across every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Database.SetDefaults()
	c.LLM.SetDefaults()
	c.Workspace.SetDefaults()
	c.Rules.SetDefaults()
	c.Checkpoint.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks every section, returning the first error found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Workspace.Validate(); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}
