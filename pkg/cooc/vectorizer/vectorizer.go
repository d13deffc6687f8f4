package vectorizer

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Estimator is the fit/transform capability set shared by embedding engines
type Estimator interface {
	Fit(docs [][]string) (*Vectorizer, error)
	Transform(docs [][]string) ([]*mat.Dense, error)
	FitTransform(docs [][]string) ([]*mat.Dense, error)
}

var _ Estimator = (*Vectorizer)(nil)

// Options configures a Vectorizer
type Options struct {
	// MaxFeatures caps the vocabulary returned by TopFeatures. Zero means
	// unlimited. Fit never consults it.
	MaxFeatures int
	// ContextWindow is the half-width of the symmetric counting window.
	ContextWindow int
}

// DefaultOptions returns unlimited features and a window of 2
func DefaultOptions() Options {
	return Options{ContextWindow: 2}
}

// Validate checks the options for negative values
func (o Options) Validate() error {
	if o.ContextWindow < 0 {
		return fmt.Errorf("context window %d: %w", o.ContextWindow, ErrInvalidConfig)
	}
	if o.MaxFeatures < 0 {
		return fmt.Errorf("max features %d: %w", o.MaxFeatures, ErrInvalidConfig)
	}
	return nil
}

// Vectorizer builds a vocabulary and a dense cooccurrence matrix from
// tokenized documents and maps tokens to their matrix rows.
//
// Both structures are nil until the first Fit; afterwards they are only
// ever extended and accumulated into.
type Vectorizer struct {
	mu     sync.RWMutex
	opts   Options
	vocab  *vocab.Vocabulary
	counts *mat.Dense // nil while the vocabulary is empty
}

// New creates an unfitted vectorizer
func New(opts Options) (*Vectorizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Vectorizer{opts: opts}, nil
}

// Options returns the construction options.
func (v *Vectorizer) Options() Options {
	return v.opts
}

// Fit extends the vocabulary with the unseen tokens of docs and adds their
// window counts to the matrix. Fitting the same batch twice doubles the
// counts.
func (v *Vectorizer) Fit(docs [][]string) (*Vectorizer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.vocab == nil {
		v.buildVocab(docs)
	} else {
		v.updateVocab(docs)
	}
	v.buildMatrix(docs)
	return v, nil
}

// FitAny is Fit for loosely-typed input. Malformed input fails with
// ErrInvalidInputKind and leaves the vectorizer untouched.
func (v *Vectorizer) FitAny(input any) (*Vectorizer, error) {
	docs, err := Documents(input)
	if err != nil {
		return v, err
	}
	return v.Fit(docs)
}

// Transform maps each document to a len(doc) x Size() matrix whose rows
// are the embeddings of its tokens. Out-of-vocabulary tokens get a zero
// row. Empty documents, and every document when the vocabulary is empty,
// map to an empty matrix.
func (v *Vectorizer) Transform(docs [][]string) ([]*mat.Dense, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.vocab == nil {
		return nil, ErrNotFitted
	}
	return embed(v.vocab, v.counts, docs), nil
}

// TransformAny is Transform for loosely-typed input.
func (v *Vectorizer) TransformAny(input any) ([]*mat.Dense, error) {
	docs, err := Documents(input)
	if err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// FitTransform fits docs and then transforms them with the updated state,
// so no token of docs is out of vocabulary.
func (v *Vectorizer) FitTransform(docs [][]string) ([]*mat.Dense, error) {
	if _, err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// Contains reports whether token is in the vocabulary.
func (v *Vectorizer) Contains(token string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.vocab == nil {
		return false, ErrNotFitted
	}
	return v.vocab.Contains(token), nil
}

// ContainsAny is Contains for loosely-typed input.
func (v *Vectorizer) ContainsAny(token any) (bool, error) {
	s, err := Token(token)
	if err != nil {
		return false, err
	}
	return v.Contains(s)
}

// Fitted reports whether Fit has been called.
func (v *Vectorizer) Fitted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vocab != nil
}

// Size returns the vocabulary size, zero before the first fit.
func (v *Vectorizer) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.vocab == nil {
		return 0
	}
	return v.vocab.Len()
}

// Vocabulary returns a copy of the token -> index mapping, nil before the
// first fit.
func (v *Vectorizer) Vocabulary() map[string]int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.vocab == nil {
		return nil
	}
	return v.vocab.Map()
}

// Matrix returns a copy of the count matrix. It is nil before the first
// fit and empty when the vocabulary is empty.
func (v *Vectorizer) Matrix() *mat.Dense {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.vocab == nil {
		return nil
	}
	if v.counts == nil {
		return &mat.Dense{}
	}
	return mat.DenseCopyOf(v.counts)
}

// Count returns how often b was seen inside the window of a.
func (v *Vectorizer) Count(a, b string) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.vocab == nil {
		return 0
	}
	return count(v.vocab, v.counts, a, b)
}

// Vector returns the embedding of a single token.
func (v *Vectorizer) Vector(token string) ([]float64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.vocab == nil {
		return nil, ErrNotFitted
	}
	return vector(v.vocab, v.counts, token), nil
}

// Snapshot returns an independent copy of the fitted state.
func (v *Vectorizer) Snapshot() (*Model, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.vocab == nil {
		return nil, ErrNotFitted
	}
	m := &Model{vocab: vocab.FromTokens(v.vocab.Tokens())}
	if v.counts != nil {
		m.counts = mat.DenseCopyOf(v.counts)
	}
	return m, nil
}

// TopFeatures applies MaxFeatures as a separate post-processing step: it
// keeps the tokens with the largest row plus column totals and trims both
// axes to them. The vectorizer itself is left unchanged.
func (v *Vectorizer) TopFeatures() (*Model, error) {
	m, err := v.Snapshot()
	if err != nil {
		return nil, err
	}
	return m.selectTop(v.opts.MaxFeatures), nil
}

func (v *Vectorizer) buildVocab(docs [][]string) {
	v.vocab = vocab.New()
	for _, doc := range docs {
		for _, tok := range doc {
			v.vocab.Add(tok)
		}
	}
	v.counts = grow(nil, v.vocab.Len())
}

// updateVocab appends unseen tokens in first-seen order and grows the
// matrix once for the whole batch.
func (v *Vectorizer) updateVocab(docs [][]string) {
	missing := v.vocab.Missing(docs)
	if len(missing) == 0 {
		return
	}
	for _, tok := range missing {
		v.vocab.Add(tok)
	}
	v.counts = grow(v.counts, v.vocab.Len())
}

func (v *Vectorizer) buildMatrix(docs [][]string) {
	w := v.opts.ContextWindow
	for _, doc := range docs {
		n := len(doc)
		for idx, tok := range doc {
			row := v.counts.RawRowView(v.indexOf(tok))
			lo, hi := idx-min(w, idx), idx+1+min(w, n-idx-1)
			for i := lo; i < hi; i++ {
				if i == idx {
					continue
				}
				row[v.indexOf(doc[i])]++
			}
		}
	}
}

// indexOf is only called for tokens already added to the vocabulary.
func (v *Vectorizer) indexOf(tok string) int {
	idx, _ := v.vocab.Index(tok)
	return idx
}

// grow returns an n x n matrix holding old in its top-left block and zeros
// elsewhere. A zero n yields nil.
func grow(old *mat.Dense, n int) *mat.Dense {
	if n == 0 {
		return nil
	}
	grown := mat.NewDense(n, n, nil)
	if old != nil {
		r, c := old.Dims()
		grown.Slice(0, r, 0, c).(*mat.Dense).Copy(old)
	}
	return grown
}
