package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/vectorizer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "cooc.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func fitModel(t *testing.T, docs [][]string) *vectorizer.Model {
	t.Helper()
	v, err := vectorizer.New(vectorizer.Options{ContextWindow: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Fit(docs); err != nil {
		t.Fatal(err)
	}
	m, err := v.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	model := fitModel(t, [][]string{{"a", "b", "c"}, {"c", "a"}})

	meta, err := st.Save(ctx, model, Meta{Label: "first", ContextWindow: 1})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if meta.ID == "" {
		t.Fatal("Save should assign an id")
	}
	if meta.Size != 3 {
		t.Errorf("Expected size 3, got %d", meta.Size)
	}

	loaded, loadedMeta, err := st.Load(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loadedMeta.Label != "first" || loadedMeta.ContextWindow != 1 {
		t.Errorf("Unexpected meta: %+v", loadedMeta)
	}
	if !loadedMeta.CreatedAt.Equal(meta.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", loadedMeta.CreatedAt, meta.CreatedAt)
	}

	got, want := loaded.Tokens(), model.Tokens()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Token %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if !mat.Equal(loaded.Dense(), model.Dense()) {
		t.Error("Loaded matrix differs from saved matrix")
	}
}

func TestSaveEmptyModel(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	meta, err := st.Save(ctx, fitModel(t, nil), Meta{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _, err := st.Load(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != 0 {
		t.Errorf("Expected empty model, got size %d", loaded.Size())
	}
}

func TestLoadNotFound(t *testing.T) {
	st := openTestStore(t)

	_, _, err := st.Load(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLatestAndList(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if _, err := st.Latest(ctx); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Latest on empty store should be ErrNotFound, got %v", err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	model := fitModel(t, [][]string{{"x", "y"}})

	var ids []string
	for i := 0; i < 3; i++ {
		meta, err := st.Save(ctx, model, Meta{CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		ids = append(ids, meta.ID)
	}

	latest, err := st.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != ids[2] {
		t.Errorf("Latest = %s, want %s", latest.ID, ids[2])
	}

	metas, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(metas))
	}
	for i, meta := range metas {
		if meta.ID != ids[2-i] {
			t.Errorf("List[%d] = %s, want %s", i, meta.ID, ids[2-i])
		}
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	meta, err := st.Save(ctx, fitModel(t, [][]string{{"a", "b"}}), Meta{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := st.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := st.Load(ctx, meta.ID); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Deleted snapshot should be gone, got %v", err)
	}
	if err := st.Delete(ctx, meta.ID); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Second delete should be ErrNotFound, got %v", err)
	}

	var n int
	if err := st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM counts`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Counts should cascade on delete, %d rows left", n)
	}
}
