package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/vectorizer"
)

// Format names an input corpus layout
type Format string

const (
	// FormatText is one plain-text document per line.
	FormatText Format = "text"
	// FormatHTML is one HTML fragment per line.
	FormatHTML Format = "html"
	// FormatJSON is a single JSON array of pre-tokenized documents.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string means FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatHTML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown input format %q: %w", s, internalerr.ErrInvalidConfig)
	}
}

const maxLineSize = 4 * 1024 * 1024

// ReadDocuments reads a corpus from r. Text and HTML lines go through tok;
// blank lines are skipped. JSON input is already tokenized and is only
// checked for shape, so a bare string where a document belongs fails with
// ErrInvalidInputKind.
func ReadDocuments(r io.Reader, format Format, tok *Tokenizer) ([][]string, error) {
	switch format {
	case FormatJSON:
		return readJSON(r)
	case FormatText, FormatHTML:
		return readLines(r, format == FormatHTML, tok)
	default:
		return nil, fmt.Errorf("unknown input format %q: %w", format, internalerr.ErrInvalidConfig)
	}
}

func readLines(r io.Reader, stripTags bool, tok *Tokenizer) ([][]string, error) {
	if tok == nil {
		tok = NewTokenizer(nil)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs [][]string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if stripTags {
			line = StripHTML(line)
		}
		docs = append(docs, tok.Tokenize(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return docs, nil
}

func readJSON(r io.Reader) ([][]string, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return vectorizer.Documents(raw)
}
