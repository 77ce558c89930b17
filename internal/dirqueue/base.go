package dirqueue

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"dirqueue/internal/dirqueue/fsx"
)

const (
	temporaryDir = "temporary"
	obsoleteDir  = "obsolete"
	lockedDir    = "locked"
)

// Options configures Open/OpenSimple.
type Options struct {
	// Umask restricts the permissions of created buckets, elements, and
	// lock directories. Defaults to the process umask when nil.
	Umask *fs.FileMode
	// MaxElts bounds the number of elements a bucket holds before a new
	// one is created. Defaults to 16000.
	MaxElts int
	// Schema declares the fields of a NormalQueue's elements. Must be
	// nil when opening a SimpleQueue.
	Schema Schema
}

const defaultMaxElts = 16000

// Member is the minimal surface an external queue-set collaborator needs
// to merge iterators from multiple queues: identity, an independent
// cursor, and best-effort FIFO walking. No merge implementation ships in
// this package; Member exists so one can be built against it.
type Member interface {
	ID() []byte
	Copy() Member
	First() (string, error)
	Next() (string, error)
	Count() (int, error)
}

// base holds the identity and iterator state shared by NormalQueue and
// SimpleQueue. It is never constructed directly by callers.
type base struct {
	root    string
	maxElts int
	umask   uint32
	caps    fsx.Capabilities

	pendingBuckets  []string
	pendingElements []string
	currentBucket   string
}

func openBase(path string, opts Options) (*base, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidOption)
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}

	maxElts := defaultMaxElts
	if opts.MaxElts > 0 {
		maxElts = opts.MaxElts
	}

	umask := processUmask()
	if opts.Umask != nil {
		umask = uint32(*opts.Umask)
	}

	if err := fsx.MkdirAll(root); err != nil {
		return nil, err
	}
	if _, err := fsx.Mkdir(filepath.Join(root, temporaryDir)); err != nil {
		return nil, err
	}
	if _, err := fsx.Mkdir(filepath.Join(root, obsoleteDir)); err != nil {
		return nil, err
	}

	return &base{
		root:    root,
		maxElts: maxElts,
		umask:   umask,
		caps:    fsx.Probe(root),
	}, nil
}

// Path returns the queue's root directory.
func (b *base) Path() string {
	return b.root
}

// ID returns the queue's stable identity: the device+inode pair of the
// root, or the absolute root path when lstat fails or reports a zero
// device. No other check of whether inode numbers are stable is made.
func (b *base) ID() []byte {
	var stat unix.Stat_t
	if err := unix.Lstat(b.root, &stat); err == nil && stat.Dev != 0 {
		id := make([]byte, 16)
		binary.BigEndian.PutUint64(id[0:8], uint64(stat.Dev))
		binary.BigEndian.PutUint64(id[8:16], stat.Ino)
		return id
	}
	return []byte(b.root)
}

// copyBase produces an independent iterator cursor sharing no
// pending-list state; the root, cap settings, and tuning parameters are
// shared since they are immutable after construction.
func (b *base) copyBase() *base {
	return &base{
		root:    b.root,
		maxElts: b.maxElts,
		umask:   b.umask,
		caps:    b.caps,
	}
}

// First rebuilds the pending-bucket list from a strict directory read (a
// missing root is fatal) and returns the first element name, if any.
func (b *base) First() (string, error) {
	names, err := fsx.ReadDir(b.root, true)
	if err != nil {
		return "", err
	}
	buckets := make([]string, 0, len(names))
	for _, name := range names {
		if isBucketName(name) {
			buckets = append(buckets, name)
		}
	}
	sort.Strings(buckets)
	b.pendingBuckets = buckets
	b.pendingElements = nil
	b.currentBucket = ""
	return b.Next()
}

// Next pops the head of the pending-element list if any; otherwise it
// pops the next pending bucket (tolerant of one having vanished under a
// concurrent purge), lists and sorts its elements, and splices them in.
// It returns an empty string once both lists are exhausted.
func (b *base) Next() (string, error) {
	for {
		if len(b.pendingElements) > 0 {
			name := b.pendingElements[0]
			b.pendingElements = b.pendingElements[1:]
			return filepath.Join(b.currentBucket, name), nil
		}
		if len(b.pendingBuckets) == 0 {
			return "", nil
		}
		bucket := b.pendingBuckets[0]
		b.pendingBuckets = b.pendingBuckets[1:]

		names, err := fsx.ReadDir(filepath.Join(b.root, bucket), false)
		if err != nil {
			return "", err
		}
		elements := make([]string, 0, len(names))
		for _, name := range names {
			if isElementName(name) {
				elements = append(elements, name)
			}
		}
		sort.Strings(elements)
		b.currentBucket = bucket
		b.pendingElements = elements
	}
}
