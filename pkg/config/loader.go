package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// includeKey is the directive a config file uses to pull in another
// file before its own keys are merged over top.
const includeKey = "$include"

// defaultLayer holds the baseline values every config starts from before
// a file is overlaid on top. Kept separate from Config.SetDefaults so the
// zero-value-means-unset detection in SetDefaults still runs afterward for
// anything a config file and this layer both leave unset.
var defaultLayer = map[string]interface{}{
	"server": map[string]interface{}{
		"host": "0.0.0.0",
		"port": 8080,
	},
	"database": map[string]interface{}{
		"driver": "sqlite",
	},
	"workspace": map[string]interface{}{
		"root": ".",
	},
	"rules": map[string]interface{}{
		"global_path": "rules.yaml",
	},
}

// Load reads path (YAML, or JSON5 by extension) into a raw map, resolving
// $include directives, merges it over defaultLayer, expands
// ${VAR}/${VAR:-default}/$VAR references against the process environment,
// then applies Config.SetDefaults and Config.Validate.
//
// Layering is env > file > defaults: defaultLayer seeds the lowest
// priority, the file (and anything it $includes) overlays it, and env
// var expansion is resolved last so a reference like api_key:
// ${OPENAI_API_KEY} always reflects the live environment regardless of
// what the file literally contains.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: path is required")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	raw, err := loadRawRecursive(path, map[string]bool{})
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	merged := mergeMaps(cloneMap(defaultLayer), raw)
	expanded, ok := ExpandEnvVarsInData(merged).(map[string]interface{})
	if !ok {
		expanded = merged
	}

	cfg, err := decodeRawConfig(expanded)
	if err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}

	slog.Debug("config loaded", "path", path, "server_addr", cfg.Server.Address())
	return cfg, nil
}

// loadRawRecursive loads a config file, resolving $include directives
// with cycle detection keyed on the absolute path.
func loadRawRecursive(path string, seen map[string]bool) (map[string]interface{}, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if seen[absPath] {
		return nil, fmt.Errorf("config include cycle detected at %s", absPath)
	}
	seen[absPath] = true
	defer delete(seen, absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	raw, err := parseRawBytes(data, absPath)
	if err != nil {
		return nil, err
	}

	includes, err := extractIncludes(raw)
	if err != nil {
		return nil, err
	}

	merged := map[string]interface{}{}
	baseDir := filepath.Dir(absPath)
	for _, inc := range includes {
		if strings.TrimSpace(inc) == "" {
			continue
		}
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(baseDir, incPath)
		}
		incRaw, err := loadRawRecursive(incPath, seen)
		if err != nil {
			return nil, err
		}
		merged = mergeMaps(merged, incRaw)
	}

	return mergeMaps(merged, raw), nil
}

func parseRawBytes(data []byte, pathHint string) (map[string]interface{}, error) {
	switch strings.ToLower(filepath.Ext(pathHint)) {
	case ".json", ".json5":
		var raw map[string]interface{}
		if err := json5.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if raw == nil {
			raw = map[string]interface{}{}
		}
		return raw, nil
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		var raw map[string]interface{}
		if err := decoder.Decode(&raw); err != nil && err != io.EOF {
			return nil, err
		}
		if err := decoder.Decode(new(struct{})); err != io.EOF {
			return nil, fmt.Errorf("expected single document")
		}
		if raw == nil {
			raw = map[string]interface{}{}
		}
		return raw, nil
	}
}

func extractIncludes(raw map[string]interface{}) ([]string, error) {
	val, ok := raw[includeKey]
	if !ok {
		return nil, nil
	}
	delete(raw, includeKey)

	switch typed := val.(type) {
	case string:
		return []string{typed}, nil
	case []string:
		return typed, nil
	case []interface{}:
		paths := make([]string, 0, len(typed))
		for _, entry := range typed {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("%s entries must be strings", includeKey)
			}
			paths = append(paths, s)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("%s must be a string or list of strings", includeKey)
	}
}

func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = map[string]interface{}{}
	}
	for key, value := range src {
		if valueMap, ok := value.(map[string]interface{}); ok {
			if existing, ok := dst[key].(map[string]interface{}); ok {
				dst[key] = mergeMaps(existing, valueMap)
				continue
			}
		}
		dst[key] = value
	}
	return dst
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	return mergeMaps(map[string]interface{}{}, src)
}

// decodeRawConfig round-trips raw through YAML so a plain
// map[string]interface{} (however it was assembled - file, includes,
// defaults, env expansion) decodes through the same yaml struct tags the
// rest of the package uses.
func decodeRawConfig(raw map[string]interface{}) (*Config, error) {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("serialize merged config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse merged config: %w", err)
	}
	return &cfg, nil
}
