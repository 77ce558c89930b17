// Package dirqueuetest provides throwaway queue fixtures for tests in
// internal/dirqueue and its callers, mirroring the teacher's
// internal/testsupport helpers for constructing scratch state per test.
package dirqueuetest

import (
	"testing"

	"dirqueue/internal/dirqueue"
)

// BasicSchema is a small two-field schema (one mandatory binary field,
// one optional string field) usable by most NormalQueue tests.
func BasicSchema() dirqueue.Schema {
	return dirqueue.Schema{
		"payload": dirqueue.Field{Type: dirqueue.Binary},
		"note":    dirqueue.Field{Type: dirqueue.String, Optional: true},
	}
}

// NewNormalQueue opens a NormalQueue rooted at a fresh temp directory
// with BasicSchema and a small MaxElts so bucket-rollover tests don't
// need thousands of elements. It registers no cleanup beyond what t's
// temp-dir already guarantees.
func NewNormalQueue(t *testing.T, maxElts int) *dirqueue.NormalQueue {
	t.Helper()
	if maxElts <= 0 {
		maxElts = 4
	}
	q, err := dirqueue.Open(t.TempDir(), dirqueue.Options{
		Schema:  BasicSchema(),
		MaxElts: maxElts,
	})
	if err != nil {
		t.Fatalf("dirqueue.Open: %v", err)
	}
	return q
}

// NewSimpleQueue opens a SimpleQueue rooted at a fresh temp directory.
func NewSimpleQueue(t *testing.T, maxElts int) *dirqueue.SimpleQueue {
	t.Helper()
	if maxElts <= 0 {
		maxElts = 4
	}
	q, err := dirqueue.OpenSimple(t.TempDir(), dirqueue.Options{MaxElts: maxElts})
	if err != nil {
		t.Fatalf("dirqueue.OpenSimple: %v", err)
	}
	return q
}
