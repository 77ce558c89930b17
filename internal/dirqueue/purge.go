package dirqueue

import (
	"path/filepath"
	"sort"
	"time"

	"dirqueue/internal/dirqueue/fsx"
)

// PurgeStats summarizes one Purge call for logging.
type PurgeStats struct {
	BucketsRemoved  int
	StaleElements   int
	StaleLocksFreed int
}

func noopWarn(string, ...any) {}

// Purge runs three sweeps in order: empty
// non-terminal buckets are removed, stale temporary/obsolete staging
// entries are reaped, and locks older than maxlock are released. A
// maxtemp or maxlock of zero disables the corresponding sweep. warn may
// be nil, discarding StaleElement/StaleLock notifications.
func (q *NormalQueue) Purge(maxtemp, maxlock time.Duration, warn WarnFunc) (PurgeStats, error) {
	if warn == nil {
		warn = noopWarn
	}
	var stats PurgeStats

	removed, err := q.purgeEmptyBuckets()
	if err != nil {
		return stats, err
	}
	stats.BucketsRemoved = removed

	if maxtemp > 0 {
		n, err := q.purgeStaleStaging(maxtemp, warn)
		if err != nil {
			return stats, err
		}
		stats.StaleElements = n
	}

	if maxlock > 0 {
		n, err := q.purgeStaleLocks(maxlock, warn)
		if err != nil {
			return stats, err
		}
		stats.StaleLocksFreed = n
	}

	return stats, nil
}

// purgeEmptyBuckets removes every bucket but the last whose sub-directory
// count is zero, tolerating one having already vanished concurrently.
func (q *NormalQueue) purgeEmptyBuckets() (int, error) {
	names, err := fsx.ReadDir(q.root, true)
	if err != nil {
		return 0, err
	}
	buckets := make([]string, 0, len(names))
	for _, name := range names {
		if isBucketName(name) {
			buckets = append(buckets, name)
		}
	}
	sort.Strings(buckets)
	if len(buckets) <= 1 {
		return 0, nil
	}

	removed := 0
	for _, bucket := range buckets[:len(buckets)-1] {
		bucketPath := filepath.Join(q.root, bucket)
		count, err := fsx.CountSubdirs(bucketPath, q.caps)
		if err != nil {
			return removed, err
		}
		if count != 0 {
			continue
		}
		outcome, err := fsx.Rmdir(bucketPath)
		if err != nil {
			return removed, err
		}
		if outcome == fsx.Removed {
			removed++
		}
	}
	return removed, nil
}

// purgeStaleStaging reaps temporary/ and obsolete/ entries whose mtime is
// older than now-maxtemp: every file inside is unlinked, locked/ (if
// present) is removed, then the directory itself.
func (q *NormalQueue) purgeStaleStaging(maxtemp time.Duration, warn WarnFunc) (int, error) {
	cutoff := time.Now().Add(-maxtemp)
	count := 0
	for _, stagingDir := range []string{temporaryDir, obsoleteDir} {
		stagingPath := filepath.Join(q.root, stagingDir)
		names, err := fsx.ReadDir(stagingPath, false)
		if err != nil {
			return count, err
		}
		for _, name := range names {
			entryPath := filepath.Join(stagingPath, name)
			info, err := fsx.Lstat(entryPath)
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}

			entries, err := fsx.ReadDir(entryPath, false)
			if err != nil {
				return count, err
			}
			for _, fieldName := range entries {
				if fieldName == lockedDir {
					continue
				}
				if err := fsx.Unlink(filepath.Join(entryPath, fieldName)); err != nil {
					return count, err
				}
			}
			if _, err := fsx.Rmdir(filepath.Join(entryPath, lockedDir)); err != nil {
				return count, err
			}
			outcome, err := fsx.Rmdir(entryPath)
			if err != nil {
				return count, err
			}
			if outcome == fsx.Removed {
				warn("stale_element", "path", entryPath)
				count++
			}
		}
	}
	return count, nil
}

// purgeStaleLocks walks the queue via First/Next and releases any
// locked/ directory older than now-maxlock. Releasing, not removing: the
// producer may still want to process the element.
func (q *NormalQueue) purgeStaleLocks(maxlock time.Duration, warn WarnFunc) (int, error) {
	cutoff := time.Now().Add(-maxlock)
	cursor := q.Copy()
	count := 0

	name, err := cursor.First()
	if err != nil {
		return count, err
	}
	for name != "" {
		bucket, leaf, splitErr := splitElement(name)
		if splitErr == nil {
			lockPath := filepath.Join(q.root, bucket, leaf, lockedDir)
			if info, statErr := fsx.Lstat(lockPath); statErr == nil && info.ModTime().Before(cutoff) {
				if _, err := q.Unlock(name, true); err != nil {
					return count, err
				}
				warn("stale_lock", "bucket", bucket, "name", leaf)
				count++
			}
		}
		name, err = cursor.Next()
		if err != nil {
			return count, err
		}
	}
	return count, nil
}
