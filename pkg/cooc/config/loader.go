package config

import (
	"fmt"
	"path/filepath"

	"github.com/cognicore/cooc/pkg/cooc/ingest"
	"github.com/cognicore/cooc/pkg/cooc/vectorizer"
)

// Loader reads the configuration files and constructs components
type Loader struct {
	ConfigPath   string
	StoplistPath string // overrides the stoplist named in the config
}

// Components holds everything needed to read and fit a corpus
type Components struct {
	Config    Config
	Tokenizer *ingest.Tokenizer
	Format    ingest.Format
	Options   vectorizer.Options
}

// Load reads all configured files and returns initialized components.
// A relative stoplist path inside the config file is resolved against the
// config file's directory.
func (l *Loader) Load() (*Components, error) {
	cfg := Default()
	stoplistPath := l.StoplistPath

	if l.ConfigPath != "" {
		loaded, err := LoadConfig(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = *loaded
		if stoplistPath == "" && cfg.Stoplist != "" {
			stoplistPath = cfg.Stoplist
			if !filepath.IsAbs(stoplistPath) {
				stoplistPath = filepath.Join(filepath.Dir(l.ConfigPath), stoplistPath)
			}
		}
	}

	stops := append([]string(nil), cfg.Stopwords...)
	if stoplistPath != "" {
		stoplist, err := LoadStoplist(stoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stops = append(stops, stoplist.Terms...)
	}

	format, err := ingest.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	tok := ingest.NewTokenizer(stops)
	tok.SetMinLength(cfg.MinTokenLength)

	return &Components{
		Config:    cfg,
		Tokenizer: tok,
		Format:    format,
		Options:   cfg.Options(),
	}, nil
}
