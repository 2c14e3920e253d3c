package monitor

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/internal/format"
	"github.com/opd-ai/go-devinfo/internal/platform"
)

// SystemInfo is the system tab. Every field is display-ready.
type SystemInfo struct {
	OSVersion      string
	APILevel       string
	SecurityPatch  string
	BuildNumber    string
	Kernel         string
	Uptime         string
	RuntimeVersion string
	Heap           string
	Timezone       string
	Locale         string
	BootTime       string
}

// SystemReader collects SystemInfo.
type SystemReader struct {
	dev            *Device
	uptime         *uptimeReader
	osReleasePaths []string
	osreleasePath  string
	timezonePath   string
	now            func() time.Time
	getenv         func(string) string
}

// NewSystemReader creates a SystemReader for dev.
func NewSystemReader(dev *Device) *SystemReader {
	getenv := os.Getenv
	if !platform.IsLocalHost(dev.Source) {
		getenv = func(string) string { return "" }
	}
	return &SystemReader{
		dev:            dev,
		uptime:         newUptimeReader(dev),
		osReleasePaths: []string{"/etc/os-release", "/usr/lib/os-release"},
		osreleasePath:  "/proc/sys/kernel/osrelease",
		timezonePath:   "/etc/timezone",
		now:            time.Now,
		getenv:         getenv,
	}
}

// Read collects the system tab. Failures read Unretrievable.
func (r *SystemReader) Read() SystemInfo {
	props := r.dev.Props
	info := SystemInfo{
		OSVersion:      orPlaceholder(r.osVersion(), nil, Unretrievable),
		APILevel:       orPlaceholder(props.Get("ro.build.version.sdk"), nil, Unretrievable),
		SecurityPatch:  orPlaceholder(props.Get("ro.build.version.security_patch"), nil, Unretrievable),
		BuildNumber:    orPlaceholder(props.First("ro.build.display.id", "ro.build.id"), nil, Unretrievable),
		RuntimeVersion: runtime.Version(),
		Heap:           heapUsage(),
		Timezone:       orPlaceholder(r.timezone(), nil, Unretrievable),
		Locale:         orPlaceholder(r.locale(), nil, Unretrievable),
	}

	kernel, err := platform.ReadString(r.dev.Source, r.osreleasePath)
	info.Kernel = orPlaceholder(kernel, err, Unretrievable)

	if up, err := r.uptime.Read(); err == nil {
		info.Uptime = format.UptimeLong(up)
		info.BootTime = BootTime(r.now(), up).Format(format.Timestamp)
	} else {
		info.Uptime = Unretrievable
		info.BootTime = Unretrievable
	}
	return info
}

func (r *SystemReader) osVersion() string {
	if rel := r.dev.Props.Get("ro.build.version.release"); rel != "" {
		return "Android " + rel
	}
	for _, p := range r.osReleasePaths {
		data, err := r.dev.Source.ReadFile(p)
		if err != nil {
			continue
		}
		if name := osReleaseField(string(data), "PRETTY_NAME"); name != "" {
			return name
		}
	}
	return ""
}

// osReleaseField returns the unquoted value of key in os-release content.
func osReleaseField(content, key string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if ok && k == key {
			return strings.Trim(v, `"'`)
		}
	}
	return ""
}

// timezone renders "Zone (Location)", e.g. "CET (Europe/Berlin)".
func (r *SystemReader) timezone() string {
	name := r.dev.Props.Get("persist.sys.timezone")
	if name == "" {
		name, _ = platform.ReadString(r.dev.Source, r.timezonePath)
	}
	loc := time.Local
	if name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	} else if platform.IsLocalHost(r.dev.Source) {
		name = time.Local.String()
	}
	if name == "" {
		return ""
	}
	zone, _ := r.now().In(loc).Zone()
	return fmt.Sprintf("%s (%s)", zone, name)
}

func (r *SystemReader) locale() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		if v := r.getenv(key); v != "" {
			lang, _, _ := strings.Cut(v, ".")
			return lang
		}
	}
	return r.dev.Props.First("persist.sys.locale", "ro.product.locale")
}

func heapUsage() string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return format.BytesShort(int64(ms.HeapAlloc)) + " / " + format.BytesShort(int64(ms.Sys))
}
