package dirqueue_test

import (
	"path/filepath"
	"testing"

	"dirqueue/internal/dirqueue"
	"dirqueue/internal/dirqueue/dirqueuetest"
)

func TestAddLockGetRemoveLifecycle(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)

	name, err := q.Add(dirqueue.Fields{"payload": []byte("hello"), "note": "world"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := q.Lock(name, false)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !ok {
		t.Fatal("expected Lock to succeed")
	}

	fields, err := q.Get(name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(fields["payload"].([]byte)) != "hello" {
		t.Fatalf("unexpected payload: %v", fields["payload"])
	}
	if fields["note"].(string) != "world" {
		t.Fatalf("unexpected note: %v", fields["note"])
	}

	if err := q.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	count, err := q.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 elements after removal, got %d", count)
	}
}

func TestAddRejectsMissingMandatoryField(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	if _, err := q.Add(dirqueue.Fields{"note": "only optional"}); err == nil {
		t.Fatal("expected error when mandatory field is missing")
	}
}

func TestAddRejectsUnknownField(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	if _, err := q.Add(dirqueue.Fields{"payload": []byte("x"), "bogus": "y"}); err == nil {
		t.Fatal("expected error for field not present in schema")
	}
}

func TestGetRequiresLock(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	name, err := q.Add(dirqueue.Fields{"payload": []byte("x")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Get(name); err == nil {
		t.Fatal("expected error reading an element that is not locked")
	}
}

func TestLockIsExclusive(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	name, err := q.Add(dirqueue.Fields{"payload": []byte("x")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := q.Lock(name, false)
	if err != nil || !ok {
		t.Fatalf("first Lock: ok=%v err=%v", ok, err)
	}

	ok, err = q.Lock(name, true)
	if err != nil {
		t.Fatalf("second Lock (permissive): %v", err)
	}
	if ok {
		t.Fatal("expected second Lock to report already locked")
	}
}

func TestUnlockThenRelock(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	name, err := q.Add(dirqueue.Fields{"payload": []byte("x")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Lock(name, false); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlocked, err := q.Unlock(name, false)
	if err != nil || !unlocked {
		t.Fatalf("Unlock: unlocked=%v err=%v", unlocked, err)
	}
	ok, err := q.Lock(name, false)
	if err != nil || !ok {
		t.Fatalf("re-Lock after Unlock: ok=%v err=%v", ok, err)
	}
}

func TestFirstNextVisitsAllElementsInOrder(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 2)
	var names []string
	for i := 0; i < 5; i++ {
		name, err := q.Add(dirqueue.Fields{"payload": []byte{byte(i)}})
		if err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
		names = append(names, name)
	}

	cursor := q.Copy()
	seen := map[string]bool{}
	var visited []string
	name, err := cursor.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	for name != "" {
		seen[name] = true
		visited = append(visited, name)
		name, err = cursor.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if len(seen) != len(names) {
		t.Fatalf("expected to visit %d elements, saw %d", len(names), len(seen))
	}
	for i := range names {
		if visited[i] != names[i] {
			t.Fatalf("visit %d: got %q, want %q (insertion order)", i, visited[i], names[i])
		}
	}
}

func TestAddRollsOverToNewBucketWhenFull(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 2)
	wantBuckets := []string{"00000000", "00000000", "00000001"}
	for i := 0; i < 3; i++ {
		name, err := q.Add(dirqueue.Fields{"payload": []byte{byte(i)}})
		if err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
		if bucket := filepath.Dir(name); bucket != wantBuckets[i] {
			t.Fatalf("Add %d: got bucket %q, want %q", i, bucket, wantBuckets[i])
		}
	}
	count, err := q.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 elements total, got %d", count)
	}
}

func TestRemoveRequiresLock(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	name, err := q.Add(dirqueue.Fields{"payload": []byte("x")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := q.Remove(name); err == nil {
		t.Fatal("expected error removing an element that is not locked")
	}
}
