package dirqueue_test

import (
	"testing"

	"dirqueue/internal/dirqueue"
	"dirqueue/internal/dirqueue/dirqueuetest"
)

func TestSimpleQueueAddGetRemove(t *testing.T) {
	q := dirqueuetest.NewSimpleQueue(t, 0)

	name, err := q.Add([]byte("payload bytes"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := q.Lock(name, false); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	payload, err := q.Get(name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(payload) != "payload bytes" {
		t.Fatalf("unexpected payload: %q", payload)
	}

	if err := q.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	count, err := q.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 after removal, got %d", count)
	}
}

func TestOpenSimpleRejectsExplicitSchema(t *testing.T) {
	opts := dirqueue.Options{Schema: dirqueuetest.BasicSchema()}
	if _, err := dirqueue.OpenSimple(t.TempDir(), opts); err == nil {
		t.Fatal("expected error when Schema is set for OpenSimple")
	}
}
