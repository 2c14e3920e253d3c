package monitor

import (
	"fmt"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// StorageInfo holds filesystem figures in bytes.
type StorageInfo struct {
	Path      string
	Total     uint64
	Used      uint64
	Available uint64
}

// UsagePercent returns Used/Total*100, or 0 when Total is unknown.
func (s StorageInfo) UsagePercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Used) / float64(s.Total) * 100
}

// DefaultExternalPaths are probed in order for shared/external storage.
var DefaultExternalPaths = []string{"/storage/emulated/0", "/sdcard"}

type storageReader struct {
	src           platform.Source
	dataPath      string
	externalPaths []string
}

// newStorageReader reads the app data partition: dataPath when set, else
// /data when present (Android), else /.
func newStorageReader(dev *Device, dataPath string, externalPaths []string) *storageReader {
	if dataPath == "" {
		dataPath = "/"
		if platform.Exists(dev.Source, "/data") {
			dataPath = "/data"
		}
	}
	if len(externalPaths) == 0 {
		externalPaths = DefaultExternalPaths
	}
	return &storageReader{src: dev.Source, dataPath: dataPath, externalPaths: externalPaths}
}

// Internal reports the data partition.
func (r *storageReader) Internal() (StorageInfo, error) {
	return r.stat(r.dataPath)
}

// External reports the first external path that can be stat'ed and is not
// the data partition itself. ok is false when none is available.
func (r *storageReader) External() (info StorageInfo, ok bool) {
	internal, _ := r.Internal()
	for _, p := range r.externalPaths {
		s, err := r.stat(p)
		if err != nil || s.Total == 0 {
			continue
		}
		if p != r.dataPath && s.Total == internal.Total && s.Available == internal.Available && r.dataPath == "/" {
			continue
		}
		return s, true
	}
	return StorageInfo{}, false
}

func (r *storageReader) stat(path string) (StorageInfo, error) {
	usage, err := r.src.Statfs(path)
	if err != nil {
		return StorageInfo{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	return StorageInfo{
		Path:      path,
		Total:     usage.Total,
		Used:      usage.Used(),
		Available: usage.Available,
	}, nil
}
