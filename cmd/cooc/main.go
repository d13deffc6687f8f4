package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/cooc/internal/logging"
	"github.com/cognicore/cooc/pkg/cooc/config"
	"github.com/cognicore/cooc/pkg/cooc/ingest"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/store/sqlite"
	"github.com/cognicore/cooc/pkg/cooc/vectorizer"
)

// options holds the parsed command line
type options struct {
	configPath   string
	stoplistPath string
	format       string
	window       int
	maxFeatures  int
	dbPath       string
	label        string
	load         string
	query        string
	topK         int
	inputs       []string
}

func main() {
	var (
		configPath   = flag.String("config", "", "YAML config file (optional)")
		stoplistPath = flag.String("stoplist", "", "Stoplist YAML file, overrides the config (optional)")
		format       = flag.String("format", "", "Input format: text, html or json (default from config)")
		window       = flag.Int("window", -1, "Context window half-width (default from config)")
		maxFeatures  = flag.Int("max-features", -1, "Keep only the top N tokens by total count (default from config)")
		dbPath       = flag.String("db", "", "SQLite database to save the snapshot to, or load it from")
		label        = flag.String("label", "", "Label stored with the snapshot")
		load         = flag.String("load", "", "Snapshot id to load instead of fitting, or \"latest\"")
		query        = flag.String("query", "", "Comma-separated tokens to print neighbours for")
		topK         = flag.Int("topk", 5, "Number of neighbours per query token")
		logLevel     = flag.String("log-level", "info", "Log level")
		logJSON      = flag.Bool("log-json", false, "Log as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cooc [options] [input files...]\n\n")
		fmt.Fprintf(os.Stderr, "Each input file is fitted as one batch; stdin is read when none are given.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logging.New()
	logger.SetJSON(*logJSON)
	if err := logger.SetLevel(*logLevel); err != nil {
		logger.Fatal("bad --log-level: %v", err)
	}

	opts := options{
		configPath:   *configPath,
		stoplistPath: *stoplistPath,
		format:       *format,
		window:       *window,
		maxFeatures:  *maxFeatures,
		dbPath:       *dbPath,
		label:        *label,
		load:         *load,
		query:        *query,
		topK:         *topK,
		inputs:       flag.Args(),
	}

	if err := run(context.Background(), opts, os.Stdin, os.Stdout, logger); err != nil {
		logger.Fatal("%v", err)
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, out io.Writer, logger *logging.Logger) error {
	if opts.load != "" && opts.dbPath == "" {
		return errors.New("--load requires --db")
	}

	comp, err := (&config.Loader{ConfigPath: opts.configPath, StoplistPath: opts.stoplistPath}).Load()
	if err != nil {
		return err
	}
	applyOverrides(comp, opts)
	if opts.format != "" {
		if comp.Format, err = ingest.ParseFormat(opts.format); err != nil {
			return err
		}
	}

	var st *sqlite.Store
	if opts.dbPath != "" {
		st, err = sqlite.Open(ctx, opts.dbPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer st.Close()
	}

	var model *vectorizer.Model
	if opts.load != "" {
		model, err = loadSnapshot(ctx, st, opts.load, logger)
	} else {
		model, err = fitInputs(ctx, comp, opts.inputs, stdin, logger)
		if err == nil && st != nil {
			err = saveSnapshot(ctx, st, model, comp.Options, opts.label, logger)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "vocabulary: %d tokens\n", model.Size())
	return printNeighbors(out, model, opts.query, opts.topK, logger)
}

func applyOverrides(comp *config.Components, opts options) {
	if opts.window >= 0 {
		comp.Options.ContextWindow = opts.window
	}
	if opts.maxFeatures >= 0 {
		comp.Options.MaxFeatures = opts.maxFeatures
	}
}

func fitInputs(ctx context.Context, comp *config.Components, inputs []string, stdin io.Reader, logger *logging.Logger) (*vectorizer.Model, error) {
	v, err := vectorizer.New(comp.Options)
	if err != nil {
		return nil, err
	}

	fitBatch := func(name string, r io.Reader) error {
		docs, err := ingest.ReadDocuments(r, comp.Format, comp.Tokenizer)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		before := v.Size()
		if _, err := v.Fit(docs); err != nil {
			return fmt.Errorf("fit %s: %w", name, err)
		}
		logger.WithFields(map[string]any{
			"input":      name,
			"documents":  len(docs),
			"new_tokens": v.Size() - before,
			"vocabulary": v.Size(),
		}).Info("fitted batch")
		return nil
	}

	if len(inputs) == 0 {
		if err := fitBatch("stdin", stdin); err != nil {
			return nil, err
		}
	}
	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		err = fitBatch(path, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	model, err := v.TopFeatures()
	if err != nil {
		return nil, err
	}
	if model.Size() < v.Size() {
		logger.Info("kept top %d of %d tokens", model.Size(), v.Size())
	}
	return model, nil
}

func saveSnapshot(ctx context.Context, st *sqlite.Store, model *vectorizer.Model, opts vectorizer.Options, label string, logger *logging.Logger) error {
	meta, err := st.Save(ctx, model, sqlite.Meta{
		Label:         label,
		ContextWindow: opts.ContextWindow,
		MaxFeatures:   opts.MaxFeatures,
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Info("saved snapshot %s (%d tokens)", meta.ID, meta.Size)
	return nil
}

func loadSnapshot(ctx context.Context, st *sqlite.Store, id string, logger *logging.Logger) (*vectorizer.Model, error) {
	if id == "latest" {
		meta, err := st.Latest(ctx)
		if err != nil {
			return nil, err
		}
		id = meta.ID
	}
	model, meta, err := st.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	logger.Info("loaded snapshot %s from %s", meta.ID, meta.CreatedAt.Format("2006-01-02 15:04:05"))
	return model, nil
}

func printNeighbors(out io.Writer, model *vectorizer.Model, query string, k int, logger *logging.Logger) error {
	for _, tok := range strings.Split(query, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		neighbors, err := model.Neighbors(tok, k)
		if errors.Is(err, internalerr.ErrNotFound) {
			logger.Warn("%q is not in the vocabulary", tok)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s:\n", tok)
		for _, n := range neighbors {
			fmt.Fprintf(out, "  %-20s %.4f\n", n.Token, n.Similarity)
		}
	}
	return nil
}
