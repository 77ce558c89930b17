package dirqueue

import (
	"fmt"
	"regexp"
	"time"
)

// elementNamePattern matches a live element's 14-hex-digit leaf name:
// 8 digits of seconds since epoch, 5 digits of microseconds, 1 digit
// derived from the producing process's PID.
var elementNamePattern = regexp.MustCompile(`^[0-9a-f]{14}$`)

// bucketNamePattern matches an 8-hex-digit intermediate bucket name.
var bucketNamePattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

// newElementName returns a 14-hex-digit element name derived from now and
// pid. Two invocations within the same microsecond by the same process
// can collide; callers must retry with a fresh timestamp on collision.
func newElementName(now time.Time, pid int) string {
	seconds := uint32(now.Unix())
	microseconds := uint32(now.Nanosecond()/1000) & 0xfffff
	pidDigit := uint32(pid) & 0xf
	return fmt.Sprintf("%08x%05x%01x", seconds, microseconds, pidDigit)
}

// isElementName reports whether name has the shape of a live element leaf
// name.
func isElementName(name string) bool {
	return elementNamePattern.MatchString(name)
}

// isBucketName reports whether name has the shape of an intermediate
// bucket directory name.
func isBucketName(name string) bool {
	return bucketNamePattern.MatchString(name)
}

// nextBucketName returns the bucket name that lexically follows name,
// formatted back to 8 hex digits.
func nextBucketName(name string) (string, error) {
	var value uint64
	if _, err := fmt.Sscanf(name, "%08x", &value); err != nil {
		return "", fmt.Errorf("%w: bucket name %q", ErrInvalidName, name)
	}
	return fmt.Sprintf("%08x", value+1), nil
}
