//go:build linux || darwin || freebsd

package provider

import (
	"golang.org/x/sys/unix"
)

func statfs(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, err
	}
	blockSize := uint64(st.Bsize)
	total := uint64(st.Blocks) * blockSize
	free := uint64(st.Bfree) * blockSize
	return DiskUsage{
		Total: total,
		Used:  total - free,
		Avail: uint64(st.Bavail) * blockSize,
	}, nil
}
