package monitor

import (
	"context"
	"strconv"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/format"
	"github.com/opd-ai/go-devinfo/internal/platform"
)

// HardwareInfo is the hardware tab. Every field is display-ready.
type HardwareInfo struct {
	Model           string
	Manufacturer    string
	Brand           string
	Board           string
	Architecture    string
	Cores           string
	ABI             string
	RAMTotal        string
	RAMAvailable    string
	RAMUsed         string
	InternalStorage string
	ExternalStorage string
}

// HardwareReader collects HardwareInfo.
type HardwareReader struct {
	dev            *Device
	cpu            *CPUSampler
	memory         *memoryReader
	storage        *storageReader
	dmiPath        string
	deviceTreePath string
}

// NewHardwareReader creates a HardwareReader. externalPath is probed
// after the default external storage locations.
func NewHardwareReader(dev *Device, dataPath, externalPath string) *HardwareReader {
	ext := DefaultExternalPaths
	if externalPath != "" {
		ext = append(append([]string(nil), DefaultExternalPaths...), externalPath)
	}
	return &HardwareReader{
		dev:            dev,
		cpu:            NewCPUSampler(dev),
		memory:         newMemoryReader(dev),
		storage:        newStorageReader(dev, dataPath, ext),
		dmiPath:        "/sys/devices/virtual/dmi/id",
		deviceTreePath: "/proc/device-tree/model",
	}
}

// Read collects the hardware tab. Failures read Unknown.
func (r *HardwareReader) Read(ctx context.Context) HardwareInfo {
	props := r.dev.Props
	info := HardwareInfo{
		Model:        props.Get("ro.product.model"),
		Manufacturer: props.Get("ro.product.manufacturer"),
		Brand:        props.Get("ro.product.brand"),
		Board:        props.First("ro.product.board", "ro.board.platform"),
	}
	if info.Model == "" {
		info.Model = r.dmi("product_name")
		if info.Model == "" {
			model, _ := platform.ReadString(r.dev.Source, r.deviceTreePath)
			info.Model = strings.TrimRight(model, "\x00")
		}
	}
	if info.Manufacturer == "" {
		info.Manufacturer = r.dmi("sys_vendor")
	}
	if info.Brand == "" {
		info.Brand = r.dmi("board_vendor")
	}
	if info.Board == "" {
		info.Board = r.dmi("board_name")
	}

	abi := props.Get("ro.product.cpu.abi")
	if abi == "" {
		if u, err := platform.ReadUname(ctx, r.dev.Source); err == nil {
			abi = u.Machine
		}
	}
	info.ABI = abi
	info.Architecture = Architecture(abi)

	if cores, err := r.cpu.CoreCount(); err == nil {
		info.Cores = strconv.Itoa(cores)
	}

	if mem, err := r.memory.Read(); err == nil {
		info.RAMTotal = format.BytesUnit(int64(mem.Total))
		info.RAMAvailable = format.BytesUnit(int64(mem.Available))
		info.RAMUsed = format.BytesUnit(int64(mem.Used))
	}

	if s, err := r.storage.Internal(); err == nil {
		info.InternalStorage = usedOfTotal(s)
	}
	if s, ok := r.storage.External(); ok {
		info.ExternalStorage = usedOfTotal(s)
	} else {
		info.ExternalStorage = NotAvailable
	}

	for _, f := range []*string{
		&info.Model, &info.Manufacturer, &info.Brand, &info.Board,
		&info.Architecture, &info.Cores, &info.ABI,
		&info.RAMTotal, &info.RAMAvailable, &info.RAMUsed, &info.InternalStorage,
	} {
		*f = orPlaceholder(*f, nil, Unknown)
	}
	return info
}

func (r *HardwareReader) dmi(name string) string {
	v, err := platform.ReadString(r.dev.Source, r.dmiPath+"/"+name)
	if err != nil {
		return ""
	}
	return v
}

func usedOfTotal(s StorageInfo) string {
	return format.BytesUnit(int64(s.Used)) + " / " + format.BytesUnit(int64(s.Total)) + " used"
}

// Architecture renders "64-bit (abi)" or "32-bit (abi)".
func Architecture(abi string) string {
	if abi == "" {
		return ""
	}
	if strings.Contains(abi, "64") {
		return "64-bit (" + abi + ")"
	}
	return "32-bit (" + abi + ")"
}
