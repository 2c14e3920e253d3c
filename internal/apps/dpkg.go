package apps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// DefaultDpkgStatus is the Debian package database.
const DefaultDpkgStatus = "/var/lib/dpkg/status"

const dpkgInfoDir = "/var/lib/dpkg/info"

// DpkgLister reads installed packages from the dpkg status database.
// Packages with priority required or important count as system apps.
type DpkgLister struct {
	src        platform.Source
	statusPath string
}

// NewDpkgLister creates a DpkgLister over DefaultDpkgStatus.
func NewDpkgLister(src platform.Source) *DpkgLister {
	return &DpkgLister{src: src, statusPath: DefaultDpkgStatus}
}

// List parses every installed package stanza.
func (l *DpkgLister) List(_ context.Context) ([]AppInfo, error) {
	data, err := l.src.ReadFile(l.statusPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.statusPath, err)
	}
	return parseDpkgStatus(data), nil
}

// Details sets the install time from the modification time of the
// package's file list, when stat is available.
func (l *DpkgLister) Details(ctx context.Context, app AppInfo) (AppInfo, error) {
	list := dpkgInfoDir + "/" + app.PackageName + ".list"
	if !platform.Exists(l.src, list) && app.SourceDir != "" {
		list = app.SourceDir
	}
	out, err := l.src.Run(ctx, "stat", "-c", "%Y", list)
	if err != nil {
		return app, nil
	}
	if sec, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64); err == nil {
		app.InstallTime = time.Unix(sec, 0)
		app.UpdateTime = app.InstallTime
	}
	return app, nil
}

func parseDpkgStatus(data []byte) []AppInfo {
	var apps []AppInfo
	fields := make(map[string]string)

	flush := func() {
		if app, ok := dpkgApp(fields); ok {
			apps = append(apps, app)
		}
		fields = make(map[string]string)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case line[0] == ' ' || line[0] == '\t':
			// Continuation lines of Description and Conffiles are not needed.
		default:
			if key, value, ok := strings.Cut(line, ":"); ok {
				fields[key] = strings.TrimSpace(value)
			}
		}
	}
	flush()
	return apps
}

func dpkgApp(f map[string]string) (AppInfo, bool) {
	name := f["Package"]
	if name == "" || !strings.HasSuffix(f["Status"], " installed") {
		return AppInfo{}, false
	}
	app := AppInfo{
		Name:        name,
		PackageName: name,
		VersionName: f["Version"],
	}
	// Status is "want flag state"; a package selected for removal is
	// still installed but no longer wanted.
	want, _, _ := strings.Cut(f["Status"], " ")
	app.Enabled = want == "install" || want == "hold"
	if arch := f["Architecture"]; arch != "" && arch != "all" {
		app.SourceDir = dpkgInfoDir + "/" + name + ":" + arch + ".list"
	}
	if kib, err := strconv.ParseInt(f["Installed-Size"], 10, 64); err == nil {
		app.Size = kib * 1024
	}
	switch f["Priority"] {
	case "required", "important":
		app.IsSystem = true
	}
	if f["Essential"] == "yes" {
		app.IsSystem = true
	}
	return app, true
}
