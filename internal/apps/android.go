package apps

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

const dumpsysTimeLayout = "2006-01-02 15:04:05"

// AndroidLister queries the Android package manager through pm and
// dumpsys.
type AndroidLister struct {
	src platform.Source
	loc *time.Location
}

// NewAndroidLister creates an AndroidLister. Install times are read in the
// local time zone.
func NewAndroidLister(src platform.Source) *AndroidLister {
	return &AndroidLister{src: src, loc: time.Local}
}

// List runs `pm list packages` three times: every package with its apk and
// uid, the system packages, and the disabled packages. Version names come
// from one `dumpsys package packages` and apk sizes from batched stat calls.
func (l *AndroidLister) List(ctx context.Context) ([]AppInfo, error) {
	all, err := l.src.Run(ctx, "pm", "list", "packages", "-f", "-U")
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	// The remaining lookups are optional; without them every app reads as
	// an enabled user app of unknown version and size.
	systemOut, _ := l.src.Run(ctx, "pm", "list", "packages", "-s")
	disabledOut, _ := l.src.Run(ctx, "pm", "list", "packages", "-d")
	dumpOut, _ := l.src.Run(ctx, "dumpsys", "package", "packages")
	system := packageSet(systemOut)
	disabled := packageSet(disabledOut)
	versions := parseVersionNames(dumpOut)

	apps := parsePackageList(all)
	paths := make([]string, 0, len(apps))
	for i := range apps {
		apps[i].IsSystem = system[apps[i].PackageName]
		apps[i].Enabled = !disabled[apps[i].PackageName]
		apps[i].VersionName = versions[apps[i].PackageName]
		if apps[i].SourceDir != "" {
			paths = append(paths, apps[i].SourceDir)
		}
	}
	sizes := l.fileSizes(ctx, paths)
	for i := range apps {
		apps[i].Size = sizes[apps[i].SourceDir]
	}
	return apps, nil
}

// statBatch bounds the number of paths passed to a single stat call.
const statBatch = 128

// fileSizes stats paths in batches. A batch that fails is skipped.
func (l *AndroidLister) fileSizes(ctx context.Context, paths []string) map[string]int64 {
	sizes := make(map[string]int64, len(paths))
	for start := 0; start < len(paths); start += statBatch {
		end := min(start+statBatch, len(paths))
		args := append([]string{"-c", "%n %s"}, paths[start:end]...)
		out, err := l.src.Run(ctx, "stat", args...)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(strings.NewReader(out))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			i := strings.LastIndex(line, " ")
			if i < 0 {
				continue
			}
			if n, err := strconv.ParseInt(line[i+1:], 10, 64); err == nil {
				sizes[line[:i]] = n
			}
		}
	}
	return sizes
}

// parseVersionNames maps package names to the versionName of their first
// record in a `dumpsys package packages` report.
func parseVersionNames(out string) map[string]string {
	names := make(map[string]string)
	var current string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "Package ["); ok {
			current, _, _ = strings.Cut(rest, "]")
			continue
		}
		if current == "" {
			continue
		}
		if v, ok := strings.CutPrefix(line, "versionName="); ok {
			if _, seen := names[current]; !seen {
				names[current] = v
			}
			current = ""
		}
	}
	return names
}

// parsePackageList parses "package:/data/app/x/base.apk=com.example uid:10123"
// lines. The apk path may itself contain '='.
func parsePackageList(out string) []AppInfo {
	var apps []AppInfo
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "package:")
		if !ok {
			continue
		}
		rest, uidText, _ := strings.Cut(line, " uid:")
		i := strings.LastIndex(rest, "=")
		if i < 0 {
			continue
		}
		app := AppInfo{
			Name:        rest[i+1:],
			PackageName: rest[i+1:],
			SourceDir:   rest[:i],
			Enabled:     true,
		}
		if uid, err := strconv.Atoi(strings.TrimSpace(uidText)); err == nil {
			app.UID = uid
		}
		apps = append(apps, app)
	}
	return apps
}

func packageSet(out string) map[string]bool {
	set := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "package:"); ok {
			set[name] = true
		}
	}
	return set
}

// Details adds versions, SDK levels, dates and permissions from
// `dumpsys package` and the apk size from stat.
func (l *AndroidLister) Details(ctx context.Context, app AppInfo) (AppInfo, error) {
	out, err := l.src.Run(ctx, "dumpsys", "package", app.PackageName)
	if err != nil {
		return app, fmt.Errorf("describing %s: %w", app.PackageName, err)
	}
	app = parsePackageDump(out, app, l.loc)

	if app.SourceDir != "" {
		if size, err := l.src.Run(ctx, "stat", "-c", "%s", app.SourceDir); err == nil {
			app.Size, _ = strconv.ParseInt(strings.TrimSpace(size), 10, 64)
		}
	}
	return app, nil
}

// parsePackageDump reads the first package record of a dumpsys package
// report. Later records describe hidden system copies and are ignored.
func parsePackageDump(out string, app AppInfo, loc *time.Location) AppInfo {
	seen := make(map[string]bool)
	var perms []string
	permIndent := -1

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))

		if permIndent >= 0 {
			if line != "" && indent > permIndent {
				name, _, _ := strings.Cut(line, ":")
				perms = append(perms, name)
				continue
			}
			permIndent = -1
		}
		if line == "requested permissions:" && !seen["permissions"] {
			seen["permissions"] = true
			permIndent = indent
			continue
		}

		for _, field := range strings.Fields(line) {
			key, value, ok := strings.Cut(field, "=")
			if !ok || seen[key] {
				continue
			}
			switch key {
			case "versionCode":
				app.VersionCode, _ = strconv.ParseInt(value, 10, 64)
			case "minSdk":
				app.MinSDK, _ = strconv.Atoi(value)
			case "targetSdk":
				app.TargetSDK, _ = strconv.Atoi(value)
			case "versionName":
				app.VersionName = value
			case "dataDir":
				app.DataDir = value
			case "codePath":
				if app.SourceDir == "" {
					app.SourceDir = value
				}
			case "firstInstallTime", "lastUpdateTime":
				// The value spans two fields: date and time.
				_, stamp, _ := strings.Cut(line, key+"=")
				if t, err := time.ParseInLocation(dumpsysTimeLayout, strings.TrimSpace(stamp), loc); err == nil {
					if key == "firstInstallTime" {
						app.InstallTime = t
					} else {
						app.UpdateTime = t
					}
				}
			default:
				continue
			}
			seen[key] = true
		}
	}
	app.Permissions = perms
	return app
}
