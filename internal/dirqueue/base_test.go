package dirqueue_test

import (
	"bytes"
	"testing"

	"dirqueue/internal/dirqueue/dirqueuetest"
)

func TestIDIsStableAndDistinctAcrossQueues(t *testing.T) {
	a := dirqueuetest.NewNormalQueue(t, 0)
	b := dirqueuetest.NewNormalQueue(t, 0)

	if !bytes.Equal(a.ID(), a.Copy().ID()) {
		t.Fatal("expected ID to be stable across calls on the same queue")
	}
	if bytes.Equal(a.ID(), b.ID()) {
		t.Fatal("expected distinct queues to have distinct IDs")
	}
}

func TestCopyHasIndependentCursor(t *testing.T) {
	q := dirqueuetest.NewNormalQueue(t, 0)
	if _, err := q.Add(map[string]any{"payload": []byte("x")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	cursorA := q.Copy()
	cursorB := q.Copy()

	firstA, err := cursorA.First()
	if err != nil {
		t.Fatalf("cursorA.First: %v", err)
	}
	if firstA == "" {
		t.Fatal("expected an element from cursorA.First")
	}

	firstB, err := cursorB.First()
	if err != nil {
		t.Fatalf("cursorB.First: %v", err)
	}
	if firstB != firstA {
		t.Fatalf("expected independent cursors to both start at the same first element, got %q and %q", firstA, firstB)
	}
}
