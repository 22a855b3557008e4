// Package config loads the typedump yaml configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// DefaultFilenames are searched, in order, in the working directory and its
// parents when no explicit config path is given.
var DefaultFilenames = []string{".typedump.yml", "typedump.yml", ".typedump.yaml", "typedump.yaml"}

// Config represents the config file.
type Config struct {
	Typedump *TypedumpConfig `yaml:"typedump"`
}

// TypedumpConfig is the tool's own section of the config file.
type TypedumpConfig struct {
	Host   *HostConfig  `yaml:"host"`
	Output OutputConfig `yaml:"output,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`
}

// HostConfig are the allowed options for the analysis host endpoint.
type HostConfig struct {
	Headers http.Header `yaml:"headers,omitempty"`
	URL     string      `yaml:"url"`
}

// OutputConfig decides where the nine JSON documents land.
type OutputConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LogConfig configures diagnostic output.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Pretty bool   `yaml:"pretty,omitempty"`
}

// FindConfigFile walks from dir toward the filesystem root looking for the
// first file matching one of filenames.
func FindConfigFile(dir string, filenames []string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("unable to resolve %s: %w", dir, err)
	}

	for {
		for _, filename := range filenames {
			candidate := filepath.Join(dir, filename)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// LoadConfig loads and parses the typedump config.
func LoadConfig(configFilename string) (*Config, error) {
	configContent, err := os.ReadFile(configFilename)
	if err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}

	var c Config

	yamlDecoder := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(configContent)))), yaml.DisallowUnknownField())
	if err := yamlDecoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}

	// validation
	if c.Typedump == nil {
		return nil, errors.New("'typedump' section missing from config")
	}

	if c.Typedump.Host == nil || c.Typedump.Host.URL == "" {
		return nil, errors.New("'host.url' not specified. Set it to the analysis host bridge endpoint")
	}

	// defaults
	if c.Typedump.Output.Dir == "" {
		c.Typedump.Output.Dir = "."
	}
	if c.Typedump.Log.Level == "" {
		c.Typedump.Log.Level = "info"
	}

	return &c, nil
}
