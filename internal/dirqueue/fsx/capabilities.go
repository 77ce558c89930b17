package fsx

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Capabilities reports which fast paths the host filesystem supports. It
// mirrors the teacher's pattern of probing golang.org/x/sys/unix once at
// process start and gating behavior on the result rather than compiling a
// separate code path per platform.
type Capabilities struct {
	// NlinkCounting is true when a directory's link count reliably equals
	// 2 plus its number of sub-directories, letting CountSubdirs use a
	// single lstat instead of a full read-dir.
	NlinkCounting bool
}

var (
	probeOnce sync.Once
	probed    Capabilities
)

// Probe returns the process-wide filesystem capability set, probing it on
// first use. The probe creates a scratch directory with one sub-directory
// under dir and checks whether its link count reflects that.
func Probe(dir string) Capabilities {
	probeOnce.Do(func() {
		probed = probeNlinkCounting(dir)
	})
	return probed
}

func probeNlinkCounting(dir string) Capabilities {
	scratch, err := os.MkdirTemp(dir, ".fsx-probe-*")
	if err != nil {
		return Capabilities{NlinkCounting: false}
	}
	defer os.RemoveAll(scratch)

	if err := os.Mkdir(scratch+"/child", 0o777); err != nil {
		return Capabilities{NlinkCounting: false}
	}

	var stat unix.Stat_t
	if err := unix.Lstat(scratch, &stat); err != nil {
		return Capabilities{NlinkCounting: false}
	}
	return Capabilities{NlinkCounting: stat.Nlink == 3}
}

// CountSubdirs returns the number of sub-directories directly under path.
// When caps.NlinkCounting is set it uses the nlink-2 fast path (one
// lstat); otherwise it falls back to a full read-dir plus per-entry lstat,
// which is the only correct approach on DOS-family filesystems.
func CountSubdirs(path string, caps Capabilities) (int, error) {
	if caps.NlinkCounting {
		var stat unix.Stat_t
		if err := unix.Lstat(path, &stat); err != nil {
			if os.IsNotExist(err) {
				return 0, nil
			}
			return 0, wrap("lstat", path, err)
		}
		count := int(stat.Nlink) - 2
		if count < 0 {
			count = 0
		}
		return count, nil
	}

	entries, err := ReadDir(path, false)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, name := range entries {
		info, err := os.Lstat(path + "/" + name)
		if err != nil {
			continue
		}
		if info.IsDir() {
			count++
		}
	}
	return count, nil
}
