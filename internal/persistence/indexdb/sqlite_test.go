package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"gridforge.dev/internal/persistence/snapshot"
	"gridforge.dev/internal/sim/catalogs"
	"gridforge.dev/internal/sim/tuning"
	"gridforge.dev/internal/sim/world"
)

func openRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestSQLiteIndex_WritesFlushOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := idx.UpsertCatalogs(catalogs.New(), tuning.Defaults()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i := int64(1); i <= 5; i++ {
		if err := idx.WriteTick(world.TickLogEntry{Tick: i, Applied: 1, Tiles: 3, Digest: "x"}); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if err := idx.WriteCommand(world.CommandLogEntry{Tick: 2, ClientID: "C1", Ref: "a", Command: "PLACE", OK: true}); err != nil {
		t.Fatalf("command: %v", err)
	}
	if err := idx.WriteCommand(world.CommandLogEntry{Tick: 2, ClientID: "C1", Ref: "b", Command: "REMOVE", OK: false, Code: "E_NOT_FOUND"}); err != nil {
		t.Fatalf("command: %v", err)
	}
	idx.RecordSnapshot("/tmp/5.snap.zst", snapshot.WorldV1{
		Header: snapshot.Header{Version: 1, WorldID: "w", Tick: 5},
		Seed:   42,
		Money:  100,
	})

	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db := openRaw(t, path)
	if n := countRows(t, db, "ticks"); n != 5 {
		t.Fatalf("ticks = %d", n)
	}
	if n := countRows(t, db, "commands"); n != 2 {
		t.Fatalf("commands = %d", n)
	}
	if n := countRows(t, db, "snapshots"); n != 1 {
		t.Fatalf("snapshots = %d", n)
	}
	// item_palette, tile_table and tuning rows.
	if n := countRows(t, db, "catalogs"); n != 3 {
		t.Fatalf("catalogs = %d", n)
	}

	// Commands within one tick get consecutive seq values in arrival order.
	var seq int
	var code string
	if err := db.QueryRow("SELECT seq, code FROM commands WHERE ref = 'b'").Scan(&seq, &code); err != nil {
		t.Fatalf("query: %v", err)
	}
	if seq != 1 || code != "E_NOT_FOUND" {
		t.Fatalf("seq=%d code=%s", seq, code)
	}
}

func TestSQLiteIndex_NilAndClosedAreNoOps(t *testing.T) {
	var idx *SQLiteIndex
	if err := idx.WriteTick(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("nil WriteTick: %v", err)
	}
	if err := idx.WriteCommand(world.CommandLogEntry{Tick: 1}); err != nil {
		t.Fatalf("nil WriteCommand: %v", err)
	}
	idx.RecordSnapshot("x", snapshot.WorldV1{})
	if err := idx.UpsertCatalogs(catalogs.New(), tuning.Defaults()); err != nil {
		t.Fatalf("nil UpsertCatalogs: %v", err)
	}

	real, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := real.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Writes after close must not panic or block.
	done := make(chan struct{})
	go func() {
		_ = real.WriteTick(world.TickLogEntry{Tick: 9})
		real.RecordSnapshot("y", snapshot.WorldV1{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("write after close blocked")
	}
}

func TestSQLiteIndex_UpsertIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cats := catalogs.New()
	for i := 0; i < 3; i++ {
		if err := idx.UpsertCatalogs(cats, tuning.Defaults()); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	db := openRaw(t, path)
	if n := countRows(t, db, "catalogs"); n != 3 {
		t.Fatalf("catalogs = %d", n)
	}
}
