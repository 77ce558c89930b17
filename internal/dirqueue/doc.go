// Package dirqueue implements a persistent, crash-safe queue built
// entirely from POSIX filesystem primitives: directory creation,
// rename, and removal are the only operations relied on for
// coordination between producers, consumers, and a periodic purger.
//
// NormalQueue stores each element as a directory holding one file per
// schema field plus an optional locked/ sub-directory that represents
// the advisory lock a consumer holds while processing it. SimpleQueue is
// the same mechanism restricted to a single binary payload field, for
// callers that don't need a schema.
//
// Every mutating operation is designed to be safe to retry after a
// crash or a concurrent participant's interference: a partially-written
// element never becomes visible to consumers because it is assembled
// under temporary/ and only made visible by a single rename into a
// bucket directory.
package dirqueue
