package dirqueue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"dirqueue/internal/dirqueue/fsx"
)

// NormalQueue is a schema-bearing queue whose elements are directories
// holding one file per field plus an optional locked/ sub-directory.
type NormalQueue struct {
	*base
	schema Schema
}

// Open opens (creating if necessary) a NormalQueue rooted at path.
func Open(path string, opts Options) (*NormalQueue, error) {
	if opts.Schema == nil {
		return nil, fmt.Errorf("%w: NormalQueue requires a schema", ErrNoSchema)
	}
	if err := opts.Schema.Validate(); err != nil {
		return nil, err
	}
	b, err := openBase(path, opts)
	if err != nil {
		return nil, err
	}
	return &NormalQueue{base: b, schema: opts.Schema}, nil
}

// Copy returns an independent iterator over the same queue.
func (q *NormalQueue) Copy() *NormalQueue {
	return &NormalQueue{base: q.copyBase(), schema: q.schema}
}

// Count sums sub-directory counts across every bucket directory. It is a
// transient value, not a consistent snapshot under concurrent mutation.
func (q *NormalQueue) Count() (int, error) {
	names, err := fsx.ReadDir(q.root, true)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, name := range names {
		if !isBucketName(name) {
			continue
		}
		n, err := fsx.CountSubdirs(filepath.Join(q.root, name), q.caps)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Add validates fields against the schema, writes them under a fresh
// temporary element directory, and atomically moves that directory into
// the current insertion bucket. It returns the element's final name
// (bucket/leaf).
func (q *NormalQueue) Add(fields Fields) (string, error) {
	for name := range fields {
		if _, ok := q.schema[name]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}

	tempPath, _, err := q.claimTemporary()
	if err != nil {
		return "", err
	}
	cleanupTemp := true
	defer func() {
		if cleanupTemp {
			os.RemoveAll(tempPath)
		}
	}()

	for fieldName, field := range q.schema {
		value, present := fields[fieldName]
		if !present {
			continue
		}
		data, err := encodeField(field, value)
		if err != nil {
			return "", err
		}
		filePath := filepath.Join(tempPath, fieldName)
		if err := withUmask(q.umask, func() error {
			return fsx.WriteFile(filePath, data, 0o666)
		}); err != nil {
			return "", err
		}
	}

	for fieldName, field := range q.schema {
		if field.Optional {
			continue
		}
		if _, present := fields[fieldName]; !present {
			return "", fmt.Errorf("%w: %q", ErrMissingField, fieldName)
		}
	}

	elementPath, err := q.commitToBucket(tempPath)
	if err != nil {
		return "", err
	}
	cleanupTemp = false
	return elementPath, nil
}

// claimTemporary repeatedly attempts to create temporary/<name> until a
// non-colliding name is claimed, returning the path and leaf name.
func (q *NormalQueue) claimTemporary() (path, name string, err error) {
	for {
		name = newElementName(time.Now(), os.Getpid())
		path = filepath.Join(q.root, temporaryDir, name)
		var outcome fsx.Outcome
		if err := withUmask(q.umask, func() error {
			var mkErr error
			outcome, mkErr = fsx.Mkdir(path)
			return mkErr
		}); err != nil {
			return "", "", err
		}
		if outcome == fsx.Created {
			return path, name, nil
		}
		// Exists: another invocation in this process claimed the same
		// microsecond. Retry with a fresh timestamp.
	}
}

// commitToBucket selects the insertion bucket and repeatedly attempts to
// rename tempPath into it under a freshly generated name, retrying on a
// name collision against an element from another producer sharing our
// microsecond.
func (q *NormalQueue) commitToBucket(tempPath string) (string, error) {
	for {
		bucket, err := q.insertionBucket()
		if err != nil {
			return "", err
		}
		name := newElementName(time.Now(), os.Getpid())
		destPath := filepath.Join(q.root, bucket, name)
		err = withUmask(q.umask, func() error {
			return fsx.Rename(tempPath, destPath)
		})
		if err == nil {
			return filepath.Join(bucket, name), nil
		}
		if isNotEmptyErr(err) {
			continue
		}
		return "", &fsx.Error{Op: "rename", Path: destPath, Err: err}
	}
}

// isNotEmptyErr reports whether err is a rename-collision race: the
// destination name is already taken (EEXIST) or, on platforms that
// report a directory rename target this way, not empty (ENOTEMPTY).
func isNotEmptyErr(err error) bool {
	return errors.Is(err, fs.ErrExist) || errors.Is(err, syscall.ENOTEMPTY)
}

// insertionBucket lists buckets, sorts them, and returns the
// highest-named one if it still has room; otherwise it creates and
// returns the next one. An empty queue gets bucket 00000000.
func (q *NormalQueue) insertionBucket() (string, error) {
	mkdirBucket := func(bucket string) error {
		return withUmask(q.umask, func() error {
			_, err := fsx.Mkdir(filepath.Join(q.root, bucket))
			return err
		})
	}
	for {
		names, err := fsx.ReadDir(q.root, true)
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

		if len(buckets) == 0 {
			const first = "00000000"
			if err := mkdirBucket(first); err != nil {
				return "", err
			}
			return first, nil
		}

		last := buckets[len(buckets)-1]
		count, err := fsx.CountSubdirs(filepath.Join(q.root, last), q.caps)
		if err != nil {
			return "", err
		}
		if _, statErr := fsx.Lstat(filepath.Join(q.root, last)); statErr != nil {
			if os.IsNotExist(statErr) {
				// Bucket vanished under a concurrent purge; retry.
				continue
			}
			return "", &fsx.Error{Op: "lstat", Path: last, Err: statErr}
		}
		if count < q.maxElts {
			return last, nil
		}

		next, err := nextBucketName(last)
		if err != nil {
			return "", err
		}
		if err := mkdirBucket(next); err != nil {
			return "", err
		}
		return next, nil
	}
}

// splitElement splits "bucket/leaf" into its two components, validating
// both against their name patterns.
func splitElement(name string) (bucket, leaf string, err error) {
	bucket, leaf = filepath.Split(name)
	bucket = filepath.Clean(bucket)
	if !isBucketName(bucket) || !isElementName(leaf) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return bucket, leaf, nil
}

// Lock attempts to acquire the advisory lock on the named element by
// creating its locked/ sub-directory. Success returns true. EEXIST
// (already locked) and ENOENT (element gone) return false when
// permissive is true (the default); otherwise they are fatal.
//
// After a successful mkdir, the parent element directory is lstat'd to
// guard against a race where a concurrent consumer removed the element
// between the mkdir succeeding on a reused inode and this observation;
// if the parent is gone, the lock is treated as implicitly released.
func (q *NormalQueue) Lock(name string, permissive bool) (bool, error) {
	bucket, leaf, err := splitElement(name)
	if err != nil {
		return false, err
	}
	elementPath := filepath.Join(q.root, bucket, leaf)
	lockPath := filepath.Join(elementPath, lockedDir)

	var outcome fsx.Outcome
	if err := withUmask(q.umask, func() error {
		var mkErr error
		outcome, mkErr = fsx.Mkdir(lockPath)
		if errors.Is(mkErr, fs.ErrNotExist) {
			// The element directory is gone: handled as Missing below.
			outcome, mkErr = fsx.Missing, nil
		}
		return mkErr
	}); err != nil {
		return false, err
	}

	switch outcome {
	case fsx.Created:
		if _, statErr := fsx.Lstat(elementPath); statErr != nil {
			if os.IsNotExist(statErr) {
				return false, nil
			}
			return false, &fsx.Error{Op: "lstat", Path: elementPath, Err: statErr}
		}
		return true, nil
	case fsx.Exists:
		if permissive {
			return false, nil
		}
		return false, fmt.Errorf("%w: %q already locked", ErrInvalidOption, name)
	default:
		if permissive {
			return false, nil
		}
		return false, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
}

// Unlock releases the advisory lock by removing the locked/
// sub-directory. Strict by default: ENOENT is fatal unless permissive is
// true, because unlock is ordinarily called by the lock holder.
func (q *NormalQueue) Unlock(name string, permissive bool) (bool, error) {
	bucket, leaf, err := splitElement(name)
	if err != nil {
		return false, err
	}
	lockPath := filepath.Join(q.root, bucket, leaf, lockedDir)

	outcome, err := fsx.Rmdir(lockPath)
	if err != nil {
		return false, err
	}
	if outcome == fsx.Removed {
		return true, nil
	}
	if permissive {
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not locked", ErrNotLocked, name)
}

// Get requires the element to be locked; it returns ErrNotLocked
// otherwise. For each schema field it reads the corresponding field
// file: missing+optional is skipped, missing+mandatory fails with
// ErrMissingField.
func (q *NormalQueue) Get(name string) (Fields, error) {
	bucket, leaf, err := splitElement(name)
	if err != nil {
		return nil, err
	}
	elementPath := filepath.Join(q.root, bucket, leaf)

	if _, err := fsx.Lstat(filepath.Join(elementPath, lockedDir)); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotLocked, name)
	}

	fields := make(Fields, len(q.schema))
	for fieldName, field := range q.schema {
		data, found, err := fsx.ReadFile(filepath.Join(elementPath, fieldName))
		if err != nil {
			return nil, err
		}
		if !found {
			if field.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: %q", ErrMissingField, fieldName)
		}
		value, err := decodeField(field, data)
		if err != nil {
			return nil, err
		}
		fields[fieldName] = value
	}
	return fields, nil
}

// removeRetryLimit bounds the re-lock race loop in Remove. The core
// protocol inherits the spec's unbounded retry, but an adversarial
// workload that keeps re-acquiring the lock on an already-renamed
// directory should eventually surface as a fatal error rather than hang
// the calling process forever.
const removeRetryLimit = 10000

// Remove requires the element to be locked; it returns ErrNotLocked
// otherwise. It renames the element into obsolete/, unlinks every field
// file, then removes locked/ and the element directory, looping if a
// concurrent consumer re-acquired the lock on the already-renamed
// directory between steps.
func (q *NormalQueue) Remove(name string) error {
	bucket, leaf, err := splitElement(name)
	if err != nil {
		return err
	}
	elementPath := filepath.Join(q.root, bucket, leaf)

	if _, err := fsx.Lstat(filepath.Join(elementPath, lockedDir)); err != nil {
		return fmt.Errorf("%w: %q", ErrNotLocked, name)
	}

	obsoleteName := newElementName(time.Now(), os.Getpid())
	obsoletePath := filepath.Join(q.root, obsoleteDir, obsoleteName)
	for {
		err := fsx.Rename(elementPath, obsoletePath)
		if err == nil {
			break
		}
		if isNotEmptyErr(err) {
			obsoleteName = newElementName(time.Now(), os.Getpid())
			obsoletePath = filepath.Join(q.root, obsoleteDir, obsoleteName)
			continue
		}
		return &fsx.Error{Op: "rename", Path: obsoletePath, Err: err}
	}

	fieldNames, err := fsx.ReadDir(obsoletePath, false)
	if err != nil {
		return err
	}
	for _, fieldName := range fieldNames {
		if fieldName == lockedDir {
			continue
		}
		if err := fsx.Unlink(filepath.Join(obsoletePath, fieldName)); err != nil {
			return err
		}
	}

	for attempt := 0; ; attempt++ {
		if attempt >= removeRetryLimit {
			return &fsx.Error{Op: "rmdir", Path: obsoletePath, Err: fmt.Errorf("exceeded %d re-lock retries", removeRetryLimit)}
		}
		if _, err := fsx.Rmdir(filepath.Join(obsoletePath, lockedDir)); err != nil {
			return err
		}
		outcome, err := fsx.Rmdir(obsoletePath)
		if err != nil {
			return err
		}
		if outcome == fsx.Removed || outcome == fsx.Missing {
			return nil
		}
		// outcome == fsx.NotEmpty: a consumer re-acquired locked/ on the
		// already-renamed directory between our rmdir calls; loop and
		// try again.
	}
}

// Touch sets the element directory's access and modification times to
// now. None of Purge's sweeps reads a live element directory's mtime: the
// stale-staging sweep only visits temporary/ and obsolete/, and the
// stale-lock sweep reads the mtime of locked/.
func (q *NormalQueue) Touch(name string) error {
	bucket, leaf, err := splitElement(name)
	if err != nil {
		return err
	}
	elementPath := filepath.Join(q.root, bucket, leaf)
	now := time.Now()
	if err := os.Chtimes(elementPath, now, now); err != nil {
		return &fsx.Error{Op: "chtimes", Path: elementPath, Err: err}
	}
	return nil
}
