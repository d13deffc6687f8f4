package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/vectorizer"
)

// Store keeps fitted models as immutable snapshots in a SQLite database.
// Only non-zero cells are written.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Meta describes a stored snapshot
type Meta struct {
	ID            string
	CreatedAt     time.Time
	Label         string
	ContextWindow int
	MaxFeatures   int
	Size          int
}

// Open opens a SQLite database with WAL mode enabled and creates the
// snapshot schema if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs apply per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	label TEXT,
	context_window INTEGER NOT NULL,
	max_features INTEGER NOT NULL,
	size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS vocab (
	snapshot_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	token TEXT NOT NULL,
	PRIMARY KEY(snapshot_id, idx),
	UNIQUE(snapshot_id, token),
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS counts (
	snapshot_id TEXT NOT NULL,
	i INTEGER NOT NULL,
	j INTEGER NOT NULL,
	count REAL NOT NULL,
	PRIMARY KEY(snapshot_id, i, j),
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *Store) newID(t time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), s.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Save writes m as a new snapshot and returns its metadata. ID, CreatedAt
// and Size are filled in by the store.
func (s *Store) Save(ctx context.Context, m *vectorizer.Model, meta Meta) (Meta, error) {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	meta.CreatedAt = meta.CreatedAt.UTC()
	meta.Size = m.Size()

	id, err := s.newID(meta.CreatedAt)
	if err != nil {
		return Meta{}, fmt.Errorf("snapshot id: %w", err)
	}
	meta.ID = id

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Meta{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO snapshots (id, created_at, label, context_window, max_features, size)
VALUES (?, ?, ?, ?, ?, ?);
`, meta.ID, meta.CreatedAt.Format(time.RFC3339Nano), meta.Label, meta.ContextWindow, meta.MaxFeatures, meta.Size)
	if err != nil {
		return Meta{}, err
	}

	if err := insertVocab(ctx, tx, meta.ID, m.Tokens()); err != nil {
		return Meta{}, err
	}
	if err := insertCounts(ctx, tx, meta.ID, m.Dense()); err != nil {
		return Meta{}, err
	}

	if err := tx.Commit(); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

func insertVocab(ctx context.Context, tx *sql.Tx, id string, tokens []string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vocab (snapshot_id, idx, token) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, tok := range tokens {
		if _, err := stmt.ExecContext(ctx, id, i, tok); err != nil {
			return err
		}
	}
	return nil
}

func insertCounts(ctx context.Context, tx *sql.Tx, id string, counts *mat.Dense) error {
	if counts == nil {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO counts (snapshot_id, i, j, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	r, c := counts.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := counts.At(i, j)
			if v == 0 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, id, i, j, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads the snapshot with the given id
func (s *Store) Load(ctx context.Context, id string) (*vectorizer.Model, Meta, error) {
	meta, err := s.meta(ctx, id)
	if err != nil {
		return nil, Meta{}, err
	}

	tokens, err := s.loadVocab(ctx, id, meta.Size)
	if err != nil {
		return nil, Meta{}, err
	}

	var counts *mat.Dense
	if len(tokens) > 0 {
		counts = mat.NewDense(len(tokens), len(tokens), nil)
		if err := s.loadCounts(ctx, id, counts); err != nil {
			return nil, Meta{}, err
		}
	}

	m, err := vectorizer.NewModel(tokens, counts)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return m, meta, nil
}

// Latest returns the metadata of the most recent snapshot
func (s *Store) Latest(ctx context.Context) (Meta, error) {
	metas, err := s.list(ctx, 1)
	if err != nil {
		return Meta{}, err
	}
	if len(metas) == 0 {
		return Meta{}, fmt.Errorf("no snapshots: %w", internalerr.ErrNotFound)
	}
	return metas[0], nil
}

// List returns all snapshots, newest first
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	return s.list(ctx, -1)
}

// Delete removes a snapshot with its vocabulary and counts
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

func (s *Store) list(ctx context.Context, limit int) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, label, context_window, max_features, size
FROM snapshots
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

func (s *Store) meta(ctx context.Context, id string) (Meta, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, created_at, label, context_window, max_features, size
FROM snapshots
WHERE id = ?;
`, id)

	meta, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, fmt.Errorf("snapshot %s: %w", id, internalerr.ErrNotFound)
	}
	return meta, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(row scanner) (Meta, error) {
	var (
		meta    Meta
		created string
		label   sql.NullString
	)
	if err := row.Scan(&meta.ID, &created, &label, &meta.ContextWindow, &meta.MaxFeatures, &meta.Size); err != nil {
		return Meta{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Meta{}, fmt.Errorf("snapshot %s created_at: %w", meta.ID, err)
	}
	meta.CreatedAt = t
	meta.Label = label.String
	return meta, nil
}

func (s *Store) loadVocab(ctx context.Context, id string, size int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idx, token FROM vocab WHERE snapshot_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]string, 0, size)
	for rows.Next() {
		var (
			idx int
			tok string
		)
		if err := rows.Scan(&idx, &tok); err != nil {
			return nil, err
		}
		if idx != len(tokens) {
			return nil, fmt.Errorf("snapshot %s: vocabulary gap at index %d: %w", id, len(tokens), internalerr.ErrInvalidInput)
		}
		tokens = append(tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tokens) != size {
		return nil, fmt.Errorf("snapshot %s: %d tokens, want %d: %w", id, len(tokens), size, internalerr.ErrInvalidInput)
	}
	return tokens, nil
}

func (s *Store) loadCounts(ctx context.Context, id string, counts *mat.Dense) error {
	rows, err := s.db.QueryContext(ctx, `SELECT i, j, count FROM counts WHERE snapshot_id = ?`, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	n, _ := counts.Dims()
	for rows.Next() {
		var (
			i, j int
			v    float64
		)
		if err := rows.Scan(&i, &j, &v); err != nil {
			return err
		}
		if i < 0 || j < 0 || i >= n || j >= n {
			return fmt.Errorf("snapshot %s: cell (%d, %d) outside %dx%d: %w", id, i, j, n, n, internalerr.ErrInvalidInput)
		}
		counts.Set(i, j, v)
	}
	return rows.Err()
}
