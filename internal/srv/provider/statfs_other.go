//go:build !linux && !darwin && !freebsd

package provider

import (
	"errors"
)

func statfs(path string) (DiskUsage, error) {
	return DiskUsage{}, errors.New("disk usage is not supported on this platform")
}
