package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"eps-citas/internal/ports/records"
	"eps-citas/internal/ports/storage"
)

// Estos tests necesitan una base real: TEST_DB_DSN=postgres://...
func openTestDB(t *testing.T) *RecordsRepo {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewRecordsRepo(db)
}

func TestRecordsRepo_Postgres(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	coll := "citas_test_" + t.Name()

	rec, err := repo.Create(ctx, coll, records.Record{"estado": "programada"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	up, err := repo.Update(ctx, coll, rec.ID(), records.Record{"estado": "confirmada"})
	if err != nil || up.String("estado") != "confirmada" {
		t.Fatalf("update: %v %#v", err, up)
	}
	if err := repo.Delete(ctx, coll, rec.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, coll, rec.ID()); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionKV_Postgres(t *testing.T) {
	repo := openTestDB(t)
	kv := NewSessionKV(repo.db, "test-terminal")
	ctx := context.Background()

	if err := kv.Set(ctx, storage.KeyToken, "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := kv.Get(ctx, storage.KeyToken); err != nil || !ok || v != "abc" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if err := kv.Delete(ctx, storage.KeyToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyToken); ok {
		t.Fatal("expected missing after delete")
	}
}
