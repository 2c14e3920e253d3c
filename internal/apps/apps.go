// Package apps lists installed applications and filters them for display.
package apps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// DateLayout is the layout of install and update dates.
const DateLayout = "Jan 02, 2006 15:04"

// AppInfo describes one installed package. Fields a platform does not
// report keep their zero value.
type AppInfo struct {
	Name        string
	PackageName string
	VersionName string
	VersionCode int64
	// Size is in bytes.
	Size        int64
	InstallTime time.Time
	UpdateTime  time.Time
	IsSystem    bool
	Enabled     bool
	TargetSDK   int
	MinSDK      int
	Permissions []string
	SourceDir   string
	DataDir     string
	UID         int
}

// SizeMB returns Size in whole MiB.
func (a AppInfo) SizeMB() int64 {
	return a.Size / (1024 * 1024)
}

// TypeText returns "System" or "User".
func (a AppInfo) TypeText() string {
	if a.IsSystem {
		return "System"
	}
	return "User"
}

// StatusText returns "Enabled" or "Disabled".
func (a AppInfo) StatusText() string {
	if a.Enabled {
		return "Enabled"
	}
	return "Disabled"
}

// VersionText returns VersionName, or "Unknown" when it is not reported.
func (a AppInfo) VersionText() string {
	if a.VersionName == "" {
		return "Unknown"
	}
	return a.VersionName
}

// Summary is the one-line list entry "1.2 • 12 MB • User • Enabled".
func (a AppInfo) Summary() string {
	return fmt.Sprintf("%s • %d MB • %s • %s", a.VersionText(), a.SizeMB(), a.TypeText(), a.StatusText())
}

// Details returns the labelled detail lines shown for a selected app.
func (a AppInfo) Details() []string {
	return []string{
		"Package: " + a.PackageName,
		fmt.Sprintf("Version: %s (%d)", a.VersionText(), a.VersionCode),
		fmt.Sprintf("Target SDK: %d", a.TargetSDK),
		fmt.Sprintf("Min SDK: %d", a.MinSDK),
		fmt.Sprintf("App Size: %d MB", a.SizeMB()),
		"Installed: " + dateText(a.InstallTime),
		"Last Updated: " + dateText(a.UpdateTime),
		"Type: " + a.TypeText() + " App",
		"Status: " + a.StatusText(),
		"APK Path: " + a.SourceDir,
		"Data Dir: " + a.DataDir,
	}
}

func dateText(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format(DateLayout)
}

// Filter selects apps by kind.
type Filter int

const (
	FilterAll Filter = iota
	FilterUser
	FilterSystem
)

func (f Filter) String() string {
	switch f {
	case FilterUser:
		return "user"
	case FilterSystem:
		return "system"
	default:
		return "all"
	}
}

// ParseFilter accepts "all", "user" or "system" in any case.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "user":
		return FilterUser, nil
	case "system":
		return FilterSystem, nil
	default:
		return FilterAll, fmt.Errorf("unknown app filter %q", s)
	}
}

func (f Filter) match(a AppInfo) bool {
	switch f {
	case FilterUser:
		return !a.IsSystem
	case FilterSystem:
		return a.IsSystem
	default:
		return true
	}
}

// Select returns the apps matching filter whose name or package contains
// query, ignoring case. A blank query matches everything. The result is
// sorted by lowercased name.
func Select(apps []AppInfo, filter Filter, query string) []AppInfo {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]AppInfo, 0, len(apps))
	for _, a := range apps {
		if !filter.match(a) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(a.Name), query) &&
			!strings.Contains(strings.ToLower(a.PackageName), query) {
			continue
		}
		out = append(out, a)
	}
	SortByName(out)
	return out
}

// SortByName sorts apps by lowercased name, then package.
func SortByName(apps []AppInfo) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, b := strings.ToLower(apps[i].Name), strings.ToLower(apps[j].Name)
		if a != b {
			return a < b
		}
		return apps[i].PackageName < apps[j].PackageName
	})
}

// Stats counts apps by kind.
type Stats struct {
	Total  int
	User   int
	System int
}

// Count tallies apps.
func Count(apps []AppInfo) Stats {
	s := Stats{Total: len(apps)}
	for _, a := range apps {
		if a.IsSystem {
			s.System++
		} else {
			s.User++
		}
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("Total: %d | User: %d | System: %d", s.Total, s.User, s.System)
}

// Lister enumerates installed packages. List returns the cheap fields of
// every package; Details fills in the rest for one of them.
type Lister interface {
	List(ctx context.Context) ([]AppInfo, error)
	Details(ctx context.Context, app AppInfo) (AppInfo, error)
}

// NewLister returns the package manager lister for Android hosts and the
// dpkg database lister otherwise.
func NewLister(src platform.Source, props platform.Props) Lister {
	if props.IsAndroid() {
		return NewAndroidLister(src)
	}
	return NewDpkgLister(src)
}
