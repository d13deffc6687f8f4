package vectorizer

import "fmt"

// Documents coerces loosely-typed input, such as decoded JSON, into a batch
// of token sequences. The batch and every document in it must be a sequence
// of strings; a bare string, a number or nil in place of a document is
// rejected with ErrInvalidInputKind.
func Documents(v any) ([][]string, error) {
	switch docs := v.(type) {
	case [][]string:
		return docs, nil
	case [][]any:
		out := make([][]string, len(docs))
		for i, doc := range docs {
			toks, err := tokens(doc)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = toks
		}
		return out, nil
	case []any:
		out := make([][]string, len(docs))
		for i, doc := range docs {
			toks, err := document(doc)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = toks
		}
		return out, nil
	default:
		return nil, fmt.Errorf("documents must be a sequence of token sequences, got %T: %w", v, ErrInvalidInputKind)
	}
}

// Token coerces v into a single token.
func Token(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("token must be a string, got %T: %w", v, ErrInvalidInputKind)
	}
	return s, nil
}

func document(v any) ([]string, error) {
	switch doc := v.(type) {
	case []string:
		return doc, nil
	case []any:
		return tokens(doc)
	default:
		return nil, fmt.Errorf("document must be a sequence, got %T: %w", v, ErrInvalidInputKind)
	}
}

func tokens(doc []any) ([]string, error) {
	out := make([]string, len(doc))
	for i, t := range doc {
		s, err := Token(t)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
