package dirqueue_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dirqueue/internal/dirqueue"
	"dirqueue/internal/dirqueue/dirqueuetest"
)

func TestPurgeRemovesEmptyNonTerminalBuckets(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 1)
	first, err := q.Add(dirqueue.Fields{"payload": []byte("a")})
	if err != nil {
		t.Fatalf("Add 1: %v", err)
	}
	if _, err := q.Add(dirqueue.Fields{"payload": []byte("b")}); err != nil {
		t.Fatalf("Add 2: %v", err)
	}

	if _, err := q.Lock(first, false); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := q.Remove(first); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	stats, err := q.Purge(0, 0, nil)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if stats.BucketsRemoved != 1 {
		t.Fatalf("expected 1 bucket removed, got %d", stats.BucketsRemoved)
	}
}

func TestPurgeReapsStaleTemporaryEntries(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	stalePath := filepath.Join(q.Path(), "temporary", "00000000000000")
	if err := os.Mkdir(stalePath, 0o777); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stalePath, "payload"), []byte("orphan"), 0o666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	old := time.Now().Add(-1000 * time.Second)
	if err := os.Chtimes(stalePath, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	var warnings []string
	warn := func(kind string, attrs ...any) { warnings = append(warnings, kind) }

	stats, err := q.Purge(5*time.Second, 0, warn)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if stats.StaleElements != 1 {
		t.Fatalf("expected 1 stale element reaped, got %d", stats.StaleElements)
	}
	if len(warnings) != 1 || warnings[0] != "stale_element" {
		t.Fatalf("expected one stale_element warning, got %v", warnings)
	}
	if _, err := os.Lstat(stalePath); !os.IsNotExist(err) {
		t.Fatalf("expected stale temporary entry to be removed, lstat err=%v", err)
	}
}

func TestPurgeReleasesStaleLocks(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	name, err := q.Add(dirqueue.Fields{"payload": []byte("x")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Lock(name, false); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	lockPath := filepath.Join(q.Path(), name, "locked")
	old := time.Now().Add(-1000 * time.Second)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	var warnings []string
	warn := func(kind string, attrs ...any) { warnings = append(warnings, kind) }

	stats, err := q.Purge(0, 5*time.Second, warn)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if stats.StaleLocksFreed != 1 {
		t.Fatalf("expected 1 stale lock freed, got %d", stats.StaleLocksFreed)
	}
	if len(warnings) != 1 || warnings[0] != "stale_lock" {
		t.Fatalf("expected one stale_lock warning, got %v", warnings)
	}

	ok, err := q.Lock(name, false)
	if err != nil {
		t.Fatalf("re-Lock: %v", err)
	}
	if !ok {
		t.Fatal("expected re-locking a released element to succeed")
	}
}

func TestPurgeNeverRemovesElements(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	name, err := q.Add(dirqueue.Fields{"payload": []byte("x")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Lock(name, false); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	lockPath := filepath.Join(q.Path(), name, "locked")
	old := time.Now().Add(-1000 * time.Second)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if _, err := q.Purge(0, 5*time.Second, nil); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	count, err := q.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected element to survive purge, count=%d", count)
	}
}
