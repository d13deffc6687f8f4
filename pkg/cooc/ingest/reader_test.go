package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
)

func TestStripHTML(t *testing.T) {
	in := `<p>Hello <b>big</b> world</p><p>again</p><script>var x = 1;</script><style>p{}</style>`

	got := StripHTML(in)
	if got != "Hello big world again" {
		t.Errorf("StripHTML() = %q", got)
	}
}

func TestStripHTMLPlainText(t *testing.T) {
	if got := StripHTML("just  text"); got != "just text" {
		t.Errorf("StripHTML() = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{" HTML ", FormatHTML},
		{"json", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestReadDocumentsText(t *testing.T) {
	in := "The cat sat\n\n   \nthe dog ran\n"

	docs, err := ReadDocuments(strings.NewReader(in), FormatText, NewTokenizer([]string{"the"}))
	if err != nil {
		t.Fatalf("ReadDocuments: %v", err)
	}

	expected := [][]string{{"cat", "sat"}, {"dog", "ran"}}
	if !reflect.DeepEqual(docs, expected) {
		t.Errorf("Expected %v, got %v", expected, docs)
	}
}

func TestReadDocumentsHTML(t *testing.T) {
	in := "<p>Machine <em>learning</em></p>\n<div>deep<br>nets</div>\n"

	docs, err := ReadDocuments(strings.NewReader(in), FormatHTML, nil)
	if err != nil {
		t.Fatalf("ReadDocuments: %v", err)
	}

	expected := [][]string{{"machine", "learning"}, {"deep", "nets"}}
	if !reflect.DeepEqual(docs, expected) {
		t.Errorf("Expected %v, got %v", expected, docs)
	}
}

func TestReadDocumentsJSON(t *testing.T) {
	in := `[["A", "b"], [], ["c"]]`

	docs, err := ReadDocuments(strings.NewReader(in), FormatJSON, nil)
	if err != nil {
		t.Fatalf("ReadDocuments: %v", err)
	}

	// JSON tokens are taken verbatim.
	expected := [][]string{{"A", "b"}, {}, {"c"}}
	if !reflect.DeepEqual(docs, expected) {
		t.Errorf("Expected %v, got %v", expected, docs)
	}
}

func TestReadDocumentsJSONBareString(t *testing.T) {
	_, err := ReadDocuments(strings.NewReader(`[["a"], "bc"]`), FormatJSON, nil)
	if !errors.Is(err, internalerr.ErrInvalidInputKind) {
		t.Errorf("Expected ErrInvalidInputKind, got %v", err)
	}
}

func TestReadDocumentsJSONEmpty(t *testing.T) {
	docs, err := ReadDocuments(strings.NewReader(""), FormatJSON, nil)
	if err != nil {
		t.Fatalf("ReadDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Expected no documents, got %v", docs)
	}
}

func TestReadDocumentsUnknownFormat(t *testing.T) {
	_, err := ReadDocuments(strings.NewReader("x"), Format("csv"), nil)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
