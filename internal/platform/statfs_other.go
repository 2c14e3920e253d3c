//go:build !linux && !darwin && !freebsd

package platform

import "fmt"

func statfs(path string) (DiskUsage, error) {
	return DiskUsage{}, fmt.Errorf("statfs %s: %w", path, ErrUnsupported)
}
