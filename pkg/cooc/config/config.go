package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/vectorizer"
)

// Config is the YAML run configuration for the cooc tool
type Config struct {
	ContextWindow  int      `yaml:"context_window"`
	MaxFeatures    int      `yaml:"max_features"`
	Format         string   `yaml:"format"`
	Stoplist       string   `yaml:"stoplist"`
	Stopwords      []string `yaml:"stopwords"`
	MinTokenLength int      `yaml:"min_token_length"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	opts := vectorizer.DefaultOptions()
	return Config{
		ContextWindow:  opts.ContextWindow,
		MaxFeatures:    opts.MaxFeatures,
		Format:         "text",
		MinTokenLength: 2,
	}
}

// LoadConfig reads a YAML config. Keys missing from the file keep their
// Default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects negative sizes
func (c Config) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if c.MinTokenLength < 0 {
		return fmt.Errorf("min token length %d: %w", c.MinTokenLength, internalerr.ErrInvalidConfig)
	}
	return nil
}

// Options returns the vectorizer options described by c
func (c Config) Options() vectorizer.Options {
	return vectorizer.Options{
		ContextWindow: c.ContextWindow,
		MaxFeatures:   c.MaxFeatures,
	}
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
