package vocab

// Vocabulary maps tokens to dense, contiguous indices in first-seen order.
// Indices are never reassigned once handed out.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// New creates an empty vocabulary
func New() *Vocabulary {
	return &Vocabulary{index: make(map[string]int)}
}

// FromTokens builds a vocabulary from tokens, keeping the first occurrence
// of any duplicate.
func FromTokens(tokens []string) *Vocabulary {
	v := &Vocabulary{
		tokens: make([]string, 0, len(tokens)),
		index:  make(map[string]int, len(tokens)),
	}
	for _, t := range tokens {
		v.Add(t)
	}
	return v
}

// Add assigns the next free index to token if it is not already present.
func (v *Vocabulary) Add(token string) (int, bool) {
	if idx, ok := v.index[token]; ok {
		return idx, false
	}
	idx := len(v.tokens)
	v.tokens = append(v.tokens, token)
	v.index[token] = idx
	return idx, true
}

// Index returns the index of token.
func (v *Vocabulary) Index(token string) (int, bool) {
	idx, ok := v.index[token]
	return idx, ok
}

// Token returns the token stored at index i.
func (v *Vocabulary) Token(i int) (string, bool) {
	if i < 0 || i >= len(v.tokens) {
		return "", false
	}
	return v.tokens[i], true
}

// Contains reports whether token has an index.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.index[token]
	return ok
}

// Len returns the number of tokens.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Tokens returns the tokens ordered by index.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Map returns a copy of the token -> index mapping.
func (v *Vocabulary) Map() map[string]int {
	out := make(map[string]int, len(v.index))
	for t, i := range v.index {
		out[t] = i
	}
	return out
}

// Missing returns the tokens of docs that have no index yet, deduplicated,
// in document order and then position order.
func (v *Vocabulary) Missing(docs [][]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, doc := range docs {
		for _, t := range doc {
			if _, ok := v.index[t]; ok {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
