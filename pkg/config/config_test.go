package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ".", cfg.Workspace.Root)
	assert.Equal(t, "rules.yaml", cfg.Rules.GlobalPath)
	assert.Equal(t, 1, cfg.Checkpoint.EveryNTurns)
	assert.Equal(t, 5, cfg.Checkpoint.Retain)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestConfig_Validate_RejectsBadSections(t *testing.T) {
	cfg := Config{
		Server:     ServerConfig{Port: 8080},
		Database:   DatabaseConfig{Driver: "sqlite", Database: "./x.db"},
		LLM:        LLMConfig{Provider: LLMProviderOllama},
		Workspace:  WorkspaceConfig{Root: "."},
		Rules:      RulesConfig{GlobalPath: "rules.yaml"},
		Checkpoint: CheckpointConfig{EveryNTurns: 1, Retain: 5},
		Logger:     LoggerConfig{Level: "info"},
	}
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Server.Port = 99999
	assert.ErrorContains(t, bad.Validate(), "server:")

	bad = cfg
	bad.Database.Driver = "oracle"
	assert.ErrorContains(t, bad.Validate(), "database:")

	bad = cfg
	bad.LLM.Provider = "not-a-provider"
	assert.ErrorContains(t, bad.Validate(), "llm:")

	bad = cfg
	bad.Checkpoint.Retain = 0
	assert.ErrorContains(t, bad.Validate(), "checkpoint:")

	bad = cfg
	bad.Rules.GlobalPath = ""
	assert.ErrorContains(t, bad.Validate(), "rules:")
}

func TestServerConfig_Address(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 9090}
	assert.Equal(t, "127.0.0.1:9090", c.Address())
}

func TestServerConfig_Validate_RequiresCertAndKeyWhenTLSEnabled(t *testing.T) {
	c := ServerConfig{Port: 443, TLS: &TLSConfig{Enabled: true}}
	assert.Error(t, c.Validate())

	c.TLS.CertFile = "cert.pem"
	c.TLS.KeyFile = "key.pem"
	assert.NoError(t, c.Validate())
}
