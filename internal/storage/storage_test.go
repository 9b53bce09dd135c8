package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/kv"
)

// plainStore hides CompareAndSwap so the re-fetch path is exercised.
type plainStore struct {
	inner kv.Store
}

func (p plainStore) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, key)
}

func (p plainStore) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, key, value)
}

func (p plainStore) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	return p.inner.ListKeysByPrefix(ctx, prefix)
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("connection refused")
}

func (failingStore) ListKeysByPrefix(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func newSQLite(t *testing.T) kv.Store {
	t.Helper()
	db, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := kv.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return kv.NewSQLiteStore(db)
}

func stores(t *testing.T) map[string]kv.Store {
	return map[string]kv.Store{
		"memory":       kv.NewMemoryStore(),
		"sqlite":       newSQLite(t),
		"memory-noCAS": plainStore{inner: kv.NewMemoryStore()},
	}
}

func sampleRecord(title string) content.Record {
	return content.Normalize("u1", content.Course{ID: "c1", Name: "CS101"}, content.Assignment{
		ID:    "cw1",
		Title: title,
	})
}

func TestRecordRepo_IndexingIsIdempotent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRecordRepo(store)

			for _, title := range []string{"First title", "Second title"} {
				rec := sampleRecord(title)
				if err := repo.Put(ctx, rec); err != nil {
					t.Fatalf("Put() error = %v", err)
				}
				if _, err := repo.AppendKeyIfAbsent(ctx, rec.UserID, rec.Key()); err != nil {
					t.Fatalf("AppendKeyIfAbsent() error = %v", err)
				}
			}

			keys, err := repo.ListKeys(ctx, "u1")
			if err != nil {
				t.Fatalf("ListKeys() error = %v", err)
			}
			if want := []string{"record:u1:assignment:c1:cw1"}; !reflect.DeepEqual(keys, want) {
				t.Errorf("ListKeys() = %v, want %v", keys, want)
			}

			got, err := repo.Get(ctx, keys[0])
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Title != "Second title" {
				t.Errorf("Get() title = %q, want last write", got.Title)
			}
		})
	}
}

func TestRecordRepo_AppendKeyIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepo(kv.NewMemoryStore())

	added, err := repo.AppendKeyIfAbsent(ctx, "u1", "k1")
	if err != nil || !added {
		t.Fatalf("AppendKeyIfAbsent(k1) = %v, %v; want true", added, err)
	}
	added, err = repo.AppendKeyIfAbsent(ctx, "u1", "k2")
	if err != nil || !added {
		t.Fatalf("AppendKeyIfAbsent(k2) = %v, %v; want true", added, err)
	}
	added, err = repo.AppendKeyIfAbsent(ctx, "u1", "k1")
	if err != nil || added {
		t.Fatalf("AppendKeyIfAbsent(k1) again = %v, %v; want false", added, err)
	}

	keys, _ := repo.ListKeys(ctx, "u1")
	if want := []string{"k1", "k2"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("ListKeys() = %v, want %v (insertion order)", keys, want)
	}

	other, _ := repo.ListKeys(ctx, "u2")
	if len(other) != 0 {
		t.Errorf("ListKeys(u2) = %v, want empty", other)
	}
}

func TestRecordRepo_ConcurrentAppendsKeepSetSemantics(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRecordRepo(store)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := fmt.Sprintf("k%d", i%5)
					if _, err := repo.AppendKeyIfAbsent(ctx, "u1", key); err != nil {
						t.Errorf("AppendKeyIfAbsent() error = %v", err)
					}
				}(i)
			}
			wg.Wait()

			keys, err := repo.ListKeys(ctx, "u1")
			if err != nil {
				t.Fatalf("ListKeys() error = %v", err)
			}
			if len(keys) != 5 {
				t.Errorf("ListKeys() = %v, want 5 distinct keys", keys)
			}
		})
	}
}

func TestRecordRepo_Errors(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo := NewRecordRepo(store)

	if _, err := repo.Get(ctx, "record:u1:assignment:c1:none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	_ = store.Set(ctx, "record:u1:assignment:c1:bad", "{not json")
	if _, err := repo.Get(ctx, "record:u1:assignment:c1:bad"); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Get(bad) error = %v, want ErrMalformedRecord", err)
	}

	_ = store.Set(ctx, RecordListKey("u9"), "oops")
	if _, err := repo.AppendKeyIfAbsent(ctx, "u9", "k"); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("AppendKeyIfAbsent() on malformed list error = %v, want ErrMalformedRecord", err)
	}
	if v, _ := store.Get(ctx, RecordListKey("u9")); v != "oops" {
		t.Errorf("malformed list was overwritten with %q", v)
	}

	if err := repo.Put(ctx, content.Record{}); err == nil {
		t.Error("Put() without ids should fail")
	}

	down := NewRecordRepo(failingStore{})
	if err := down.Put(ctx, sampleRecord("x")); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Put() on failing store error = %v, want ErrBackendUnavailable", err)
	}
	if _, err := down.ListKeys(ctx, "u1"); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("ListKeys() on failing store error = %v, want ErrBackendUnavailable", err)
	}
	if _, err := down.AppendKeyIfAbsent(ctx, "u1", "k"); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("AppendKeyIfAbsent() on failing store error = %v, want ErrBackendUnavailable", err)
	}
}

func TestLedgerRepo(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewLedgerRepo(store)

			ledger, err := repo.Ledger(ctx, "cw1", "u1")
			if err != nil || len(ledger) != 0 {
				t.Fatalf("Ledger() = %v, %v; want empty", ledger, err)
			}

			for _, label := range []string{"24h", "12h", "24h"} {
				if err := repo.RecordSent(ctx, "cw1", "u1", label); err != nil {
					t.Fatalf("RecordSent(%s) error = %v", label, err)
				}
			}

			ledger, err = repo.Ledger(ctx, "cw1", "u1")
			if err != nil {
				t.Fatalf("Ledger() error = %v", err)
			}
			if want := []string{"24h", "12h"}; !reflect.DeepEqual(ledger, want) {
				t.Errorf("Ledger() = %v, want %v", ledger, want)
			}

			other, _ := repo.Ledger(ctx, "cw1", "u2")
			if len(other) != 0 {
				t.Errorf("Ledger() for another user = %v, want empty", other)
			}
		})
	}
}

func TestWatermarkRepo_Monotonic(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewWatermarkRepo(store)
			base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

			if _, ok, err := repo.Watermark(ctx, "u1", "c1"); ok || err != nil {
				t.Fatalf("Watermark() on empty store = %v, %v; want absent", ok, err)
			}

			steps := []time.Time{base, base.Add(time.Hour), base.Add(-time.Hour), base.Add(time.Hour), base.Add(90 * time.Minute)}
			var prev time.Time
			for i, at := range steps {
				if err := repo.Advance(ctx, "u1", "c1", at); err != nil {
					t.Fatalf("Advance() step %d error = %v", i, err)
				}
				mark, ok, err := repo.Watermark(ctx, "u1", "c1")
				if err != nil || !ok {
					t.Fatalf("Watermark() step %d = %v, %v", i, ok, err)
				}
				if mark.Before(prev) {
					t.Errorf("step %d: watermark moved backward from %v to %v", i, prev, mark)
				}
				prev = mark
			}
			if want := base.Add(90 * time.Minute); !prev.Equal(want) {
				t.Errorf("final watermark = %v, want %v", prev, want)
			}
		})
	}
}

func TestWatermarkRepo_MalformedIsReplaced(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo := NewWatermarkRepo(store)
	_ = store.Set(ctx, WatermarkKey("u1", "c1"), "yesterday")

	if _, _, err := repo.Watermark(ctx, "u1", "c1"); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("Watermark() error = %v, want ErrMalformedRecord", err)
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.Advance(ctx, "u1", "c1", at); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	mark, ok, err := repo.Watermark(ctx, "u1", "c1")
	if err != nil || !ok || !mark.Equal(at) {
		t.Errorf("Watermark() = %v, %v, %v; want %v", mark, ok, err, at)
	}
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo := NewUserRepo(store)

	if _, err := repo.Register(ctx, User{}); err == nil {
		t.Error("Register() without id should fail")
	}

	for _, id := range []string{"bob", "alice"} {
		if _, err := repo.Register(ctx, User{ID: id, Handle: "h-" + id}); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}
	_ = store.Set(ctx, UserKey("broken"), "{")

	u, err := repo.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if u.Handle != "h-alice" || u.RegisteredAt.IsZero() {
		t.Errorf("Get() = %+v", u)
	}
	if _, err := repo.Get(ctx, "carol"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(carol) error = %v, want ErrNotFound", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 || users[0].ID != "alice" || users[1].ID != "bob" {
		t.Errorf("List() = %+v, want alice and bob", users)
	}
}
