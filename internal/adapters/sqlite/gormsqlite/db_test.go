package gormsqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenReadWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	err = db.WriteTX(ctx, func(tx *Tx) error {
		if err := tx.Exec("CREATE TABLE probe (id INTEGER PRIMARY KEY, name TEXT NOT NULL)").Error; err != nil {
			return err
		}
		return tx.Exec("INSERT INTO probe (name) VALUES (?)", "alpha").Error
	})
	if err != nil {
		t.Fatalf("write tx: %v", err)
	}

	var count int64
	err = db.ReadTX(ctx, func(tx *Tx) error {
		return tx.Raw("SELECT COUNT(*) FROM probe").Scan(&count).Error
	})
	if err != nil {
		t.Fatalf("read tx: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestReaderRejectsWrites(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.WriteTX(ctx, func(tx *Tx) error {
		return tx.Exec("CREATE TABLE probe (id INTEGER PRIMARY KEY)").Error
	}); err != nil {
		t.Fatalf("write tx: %v", err)
	}

	// The read pool runs with query_only on, so mutations through it fail.
	err = db.ReadTX(ctx, func(tx *Tx) error {
		return tx.Exec("INSERT INTO probe (id) VALUES (1)").Error
	})
	if err == nil {
		t.Fatal("expected reader to reject writes")
	}
}
