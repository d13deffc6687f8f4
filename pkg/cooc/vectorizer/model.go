package vectorizer

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Model is an immutable (vocabulary, matrix) pair. It is produced by
// Vectorizer.Snapshot, Vectorizer.TopFeatures and by snapshot loaders.
type Model struct {
	vocab  *vocab.Vocabulary
	counts *mat.Dense // nil when the vocabulary is empty
}

// Neighbor is a token ranked by the cosine similarity of its row
type Neighbor struct {
	Token      string
	Similarity float64
}

// NewModel builds a model from tokens ordered by index and a square count
// matrix of matching size. counts may be nil when tokens is empty.
func NewModel(tokens []string, counts *mat.Dense) (*Model, error) {
	v := vocab.FromTokens(tokens)
	if v.Len() != len(tokens) {
		return nil, fmt.Errorf("duplicate tokens in vocabulary: %w", ErrInvalidInput)
	}
	if len(tokens) == 0 {
		if counts != nil && !counts.IsEmpty() {
			r, c := counts.Dims()
			return nil, fmt.Errorf("matrix is %dx%d for empty vocabulary: %w", r, c, ErrInvalidInput)
		}
		return &Model{vocab: v}, nil
	}
	if counts == nil || counts.IsEmpty() {
		return nil, fmt.Errorf("missing matrix for %d tokens: %w", len(tokens), ErrInvalidInput)
	}
	r, c := counts.Dims()
	if r != len(tokens) || c != len(tokens) {
		return nil, fmt.Errorf("matrix is %dx%d for %d tokens: %w", r, c, len(tokens), ErrInvalidInput)
	}
	return &Model{vocab: v, counts: mat.DenseCopyOf(counts)}, nil
}

// Size returns the vocabulary size.
func (m *Model) Size() int {
	return m.vocab.Len()
}

// Tokens returns the vocabulary ordered by index.
func (m *Model) Tokens() []string {
	return m.vocab.Tokens()
}

// Vocabulary returns a copy of the token -> index mapping.
func (m *Model) Vocabulary() map[string]int {
	return m.vocab.Map()
}

// Contains reports whether token is in the vocabulary.
func (m *Model) Contains(token string) bool {
	return m.vocab.Contains(token)
}

// Dense returns a copy of the count matrix, or nil for an empty vocabulary.
func (m *Model) Dense() *mat.Dense {
	if m.counts == nil {
		return nil
	}
	return mat.DenseCopyOf(m.counts)
}

// Count returns how often b was seen in the window of a.
func (m *Model) Count(a, b string) float64 {
	return count(m.vocab, m.counts, a, b)
}

// Vector returns the embedding of token. Unknown tokens embed as zero.
func (m *Model) Vector(token string) []float64 {
	return vector(m.vocab, m.counts, token)
}

// Transform maps every token of every document to its row.
func (m *Model) Transform(docs [][]string) []*mat.Dense {
	return embed(m.vocab, m.counts, docs)
}

// TotalCounts returns row sum plus column sum for every index.
func (m *Model) TotalCounts() []float64 {
	return totals(m.counts, m.vocab.Len())
}

// Neighbors returns up to k tokens whose rows are most similar to the row
// of token. Tokens with an all-zero row are never returned.
func (m *Model) Neighbors(token string, k int) ([]Neighbor, error) {
	idx, ok := m.vocab.Index(token)
	if !ok {
		return nil, fmt.Errorf("token %q: %w", token, ErrNotFound)
	}
	if k <= 0 {
		k = 10
	}

	target := m.counts.RawRowView(idx)
	targetNorm := floats.Norm(target, 2)
	if targetNorm == 0 {
		return nil, nil
	}

	var out []Neighbor
	for i := 0; i < m.vocab.Len(); i++ {
		if i == idx {
			continue
		}
		row := m.counts.RawRowView(i)
		norm := floats.Norm(row, 2)
		if norm == 0 {
			continue
		}
		tok, _ := m.vocab.Token(i)
		out = append(out, Neighbor{
			Token:      tok,
			Similarity: floats.Dot(target, row) / (targetNorm * norm),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// selectTop keeps the n indices with the largest total count, breaking
// ties by lower index, and re-indexes them in their original order.
func (m *Model) selectTop(n int) *Model {
	size := m.vocab.Len()
	if n <= 0 || n >= size {
		return m
	}

	sums := totals(m.counts, size)
	order := make([]int, size)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sums[order[a]] > sums[order[b]]
	})
	keep := order[:n]
	sort.Ints(keep)

	tokens := make([]string, n)
	trimmed := mat.NewDense(n, n, nil)
	for ni, oi := range keep {
		tokens[ni], _ = m.vocab.Token(oi)
		for nj, oj := range keep {
			trimmed.Set(ni, nj, m.counts.At(oi, oj))
		}
	}
	return &Model{vocab: vocab.FromTokens(tokens), counts: trimmed}
}

func count(v *vocab.Vocabulary, counts *mat.Dense, a, b string) float64 {
	i, ok := v.Index(a)
	if !ok {
		return 0
	}
	j, ok := v.Index(b)
	if !ok {
		return 0
	}
	return counts.At(i, j)
}

func vector(v *vocab.Vocabulary, counts *mat.Dense, token string) []float64 {
	out := make([]float64, v.Len())
	if idx, ok := v.Index(token); ok {
		copy(out, counts.RawRowView(idx))
	}
	return out
}

func embed(v *vocab.Vocabulary, counts *mat.Dense, docs [][]string) []*mat.Dense {
	size := v.Len()
	out := make([]*mat.Dense, len(docs))
	for d, doc := range docs {
		if len(doc) == 0 || size == 0 {
			out[d] = &mat.Dense{}
			continue
		}
		rows := mat.NewDense(len(doc), size, nil)
		for k, tok := range doc {
			// OOV rows stay zero.
			if idx, ok := v.Index(tok); ok {
				rows.SetRow(k, counts.RawRowView(idx))
			}
		}
		out[d] = rows
	}
	return out
}

func totals(counts *mat.Dense, size int) []float64 {
	sums := make([]float64, size)
	for i := 0; i < size; i++ {
		sums[i] = floats.Sum(counts.RawRowView(i))
		for j := 0; j < size; j++ {
			sums[i] += counts.At(j, i)
		}
	}
	return sums
}
