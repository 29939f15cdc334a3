// Package config provides configuration types and loading for sheetrt.
// This file contains all configuration types in a unified structure.
package config

import "fmt"

// WorkspaceConfig points the runtime at the spreadsheet directory a
// session operates on and the exclusion patterns pkg/manifest applies
// when scanning it.
type WorkspaceConfig struct {
	// Root is the directory scanned for spreadsheet files.
	Root string `yaml:"root"`

	// Exclude lists extra doublestar glob patterns to skip during scan,
	// on top of the built-in noise-dir/hidden-file rules.
	Exclude []string `yaml:"exclude,omitempty"`
}

// SetDefaults applies default values to WorkspaceConfig.
func (c *WorkspaceConfig) SetDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
}

// Validate checks the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	return nil
}

// RulesConfig locates the persisted rules and intent-keyword override
// files pkg/rules loads at startup.
type RulesConfig struct {
	// GlobalPath is the YAML file pkg/rules.GlobalStore reads/writes.
	GlobalPath string `yaml:"global_path,omitempty"`

	// IntentKeywordsPath optionally overrides pkg/rules's default
	// intent keyword sets (a locale override, say). Empty means use
	// the built-in defaults.
	IntentKeywordsPath string `yaml:"intent_keywords_path,omitempty"`
}

// SetDefaults applies default values to RulesConfig.
func (c *RulesConfig) SetDefaults() {
	if c.GlobalPath == "" {
		c.GlobalPath = "rules.yaml"
	}
}

// Validate checks the rules configuration.
func (c *RulesConfig) Validate() error {
	if c.GlobalPath == "" {
		return fmt.Errorf("global_path is required")
	}
	return nil
}

// TLSConfig configures TLS for the HTTP server.
type TLSConfig struct {
	// Enabled turns on TLS.
	Enabled bool `yaml:"enabled,omitempty"`

	// CertFile is the path to the certificate.
	CertFile string `yaml:"cert_file,omitempty"`

	// KeyFile is the path to the private key.
	KeyFile string `yaml:"key_file,omitempty"`
}

// CORSConfig configures CORS for the HTTP server.
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`

	// AllowedMethods is a list of allowed HTTP methods.
	AllowedMethods []string `yaml:"allowed_methods,omitempty"`

	// AllowedHeaders is a list of allowed headers.
	AllowedHeaders []string `yaml:"allowed_headers,omitempty"`

	// AllowCredentials allows credentials.
	AllowCredentials bool `yaml:"allow_credentials,omitempty"`
}

// ServerConfig configures the HTTP server that fronts the engine.
type ServerConfig struct {
	// Host to bind to.
	Host string `yaml:"host,omitempty"`

	// Port to listen on.
	Port int `yaml:"port,omitempty"`

	// TLS configuration.
	TLS *TLSConfig `yaml:"tls,omitempty"`

	// CORS configuration.
	CORS *CORSConfig `yaml:"cors,omitempty"`
}

// SetDefaults applies default values to ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.TLS != nil && c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("tls requires cert_file and key_file")
		}
	}
	return nil
}

// Address returns the host:port address to listen on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
