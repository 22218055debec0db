package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"clubhouse/internal/adapters/http/perf"
)

func newTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	return db
}

// TestTimedDB_RecordsTimings verifies each wrapped operation records a sample.
func TestTimedDB_RecordsTimings(t *testing.T) {
	db := newTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "a", "1"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}

	rows, err := tdb.QueryContext(ctx, "SELECT k, v FROM kv")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	var v string
	if err := tdb.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", "a").Scan(&v); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if v != "1" {
		t.Errorf("v = %q, want 1", v)
	}

	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	if got := collector.TotalRecorded(); got != 4 {
		t.Errorf("TotalRecorded = %d, want 4", got)
	}
}

// TestTimedDB_NilCollector verifies TimedDB works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	db := newTimedTestDB(t)
	tdb := NewTimedDB(db, nil)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO kv (k, v) VALUES (?, ?)", "a", "1"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged
// and timing is still recorded. Swallowing errors here would corrupt data.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	db := newTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO no_such_table VALUES (?)"); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}

	var v string
	if err := tdb.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", "missing").Scan(&v); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	if got := collector.TotalRecorded(); got != 2 {
		t.Errorf("TotalRecorded = %d, want 2 (must record even on error)", got)
	}
}

// TestTimedDB_CancelledContext verifies a cancelled context returns an error
// and timing is still recorded.
func TestTimedDB_CancelledContext(t *testing.T) {
	db := newTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "a", "1"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
	if got := collector.TotalRecorded(); got != 1 {
		t.Errorf("TotalRecorded = %d, want 1 (must record on cancelled ctx)", got)
	}
}

// TestTimedDB_ResultPassthrough verifies sql.Result values survive the wrapper.
func TestTimedDB_ResultPassthrough(t *testing.T) {
	db := newTimedTestDB(t)
	tdb := NewTimedDB(db, perf.NewCollector(100))

	result, err := tdb.ExecContext(context.Background(), "INSERT INTO kv (k, v) VALUES (?, ?)", "r", "1")
	if err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		t.Fatalf("RowsAffected: %v", err)
	}
	if rows != 1 {
		t.Errorf("RowsAffected = %d, want 1", rows)
	}
}

// TestTimedDB_RawDB verifies RawDB returns the original *sql.DB.
func TestTimedDB_RawDB(t *testing.T) {
	db := newTimedTestDB(t)
	tdb := NewTimedDB(db, nil)

	if tdb.RawDB() != db {
		t.Error("RawDB() should return the original *sql.DB")
	}
}

// TestTimedDB_ConcurrentUse verifies no data races or panics under
// concurrent Exec, Query, and QueryRow calls.
func TestTimedDB_ConcurrentUse(t *testing.T) {
	db := newTimedTestDB(t)
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	tdb.ExecContext(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "seed", "data")

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				tdb.ExecContext(ctx, "INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)", "w", "x")
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				rows, err := tdb.QueryContext(ctx, "SELECT k FROM kv LIMIT 1")
				if err == nil {
					rows.Close()
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				var v string
				tdb.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", "seed").Scan(&v)
			}
		}
	}()

	time.Sleep(100 * time.Millisecond)
	close(done)
	wg.Wait()

	if collector.TotalRecorded() < 3 {
		t.Errorf("TotalRecorded = %d, want >= 3", collector.TotalRecorded())
	}
}

// BenchmarkTimedDB_QueryRow measures per-call overhead of the timing wrapper.
func BenchmarkTimedDB_QueryRow(b *testing.B) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	db.Exec("CREATE TABLE bench (id INTEGER PRIMARY KEY, val TEXT)")
	db.Exec("INSERT INTO bench VALUES (1, 'x')")
	tdb := NewTimedDB(db, perf.NewCollector(perf.DefaultRingSize))

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tdb.QueryRowContext(ctx, "SELECT val FROM bench WHERE id = 1")
	}
}
