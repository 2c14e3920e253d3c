package monitor

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// jpegFormat is the image format code for JPEG in stream configurations.
const jpegFormat = "256"

// CameraDetails describes one camera. String fields are display-ready.
type CameraDetails struct {
	ID          string
	Name        string
	Facing      string
	Resolution  string
	Aperture    string
	FocalLength string
	ISORange    string
	// Features lists "Flash" and "OIS" when present, or "None".
	Features string
}

// CameraInfo is the camera tab.
type CameraInfo struct {
	// API names the backend the data came from: "Camera2" or "V4L2".
	API           string
	Count         int
	Front         bool
	Back          bool
	Flash         bool
	Autofocus     bool
	HardwareLevel string
	Cameras       []CameraDetails
}

// Supported reports whether any camera was found.
func (c CameraInfo) Supported() bool {
	return c.Count > 0
}

// FirstFacing returns the first camera facing the given way.
func (c CameraInfo) FirstFacing(facing string) (CameraDetails, bool) {
	for _, cam := range c.Cameras {
		if cam.Facing == facing {
			return cam, true
		}
	}
	return CameraDetails{}, false
}

// Facing values.
const (
	FacingBack     = "Back"
	FacingFront    = "Front"
	FacingExternal = "External"
)

// AvailableText renders a camera presence flag.
func AvailableText(b bool) string {
	if b {
		return "Available"
	}
	return NotAvailableUC
}

// CameraReader enumerates cameras through the Android camera service or
// V4L2 sysfs.
type CameraReader struct {
	dev      *Device
	v4l2Path string
}

// NewCameraReader creates a CameraReader.
func NewCameraReader(dev *Device) *CameraReader {
	return &CameraReader{dev: dev, v4l2Path: "/sys/class/video4linux"}
}

// Read enumerates cameras. An error means the camera service could not
// be queried at all.
func (r *CameraReader) Read(ctx context.Context) (CameraInfo, error) {
	if r.dev.IsAndroid() {
		out, err := r.dev.Source.Run(ctx, "dumpsys", "media.camera")
		if err != nil {
			return CameraInfo{}, fmt.Errorf("querying camera service: %w", err)
		}
		return parseCameraDump(out), nil
	}
	return r.readV4L2()
}

func (r *CameraReader) readV4L2() (CameraInfo, error) {
	info := CameraInfo{API: "V4L2", HardwareLevel: Unknown}
	names, err := r.dev.Source.ReadDir(r.v4l2Path)
	if err != nil {
		// No video4linux class means no camera, not a failure.
		return info, nil
	}
	for _, node := range names {
		if !strings.HasPrefix(node, "video") {
			continue
		}
		dir := r.v4l2Path + "/" + node
		// Metadata nodes share the device with index 0.
		if idx, err := platform.ReadInt(r.dev.Source, dir+"/index"); err == nil && idx != 0 {
			continue
		}
		name, _ := platform.ReadString(r.dev.Source, dir+"/name")
		cam := CameraDetails{
			ID:          node,
			Name:        name,
			Facing:      v4l2Facing(name),
			Resolution:  Unknown,
			Aperture:    Unknown,
			FocalLength: Unknown,
			ISORange:    Unknown,
			Features:    "None",
		}
		info.Cameras = append(info.Cameras, cam)
		info.Count++
		switch cam.Facing {
		case FacingBack:
			info.Back = true
		case FacingFront:
			info.Front = true
		}
	}
	return info, nil
}

// v4l2Facing guesses facing from the device name. Built-in webcams face
// the user.
func v4l2Facing(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "rear"), strings.Contains(lower, "back"), strings.Contains(lower, "world"):
		return FacingBack
	case strings.Contains(lower, "usb") && !strings.Contains(lower, "integrated"):
		return FacingExternal
	default:
		return FacingFront
	}
}

// cameraBlock holds the metadata tags of one camera from dumpsys.
type cameraBlock struct {
	id   string
	tags map[string][]string
}

// parseCameraDump parses `dumpsys media.camera`. Each camera starts with
// a "== Camera ... ==" header and lists metadata as
//
//	android.lens.facing (50005): byte[1]
//	    [BACK ]
func parseCameraDump(out string) CameraInfo {
	info := CameraInfo{API: "Camera2", HardwareLevel: Unknown}

	var (
		blocks []*cameraBlock
		cur    *cameraBlock
		tag    string
	)
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "== Camera") && strings.HasSuffix(line, "=="):
			cur = &cameraBlock{id: cameraBlockID(line), tags: make(map[string][]string)}
			blocks = append(blocks, cur)
			tag = ""
		case cur == nil:
		case strings.HasPrefix(line, "android."):
			name, _, _ := strings.Cut(line, " ")
			tag = strings.TrimSuffix(name, ":")
		case strings.HasPrefix(line, "[") && tag != "":
			cur.tags[tag] = append(cur.tags[tag], bracketValues(line[1:])...)
		default:
			tag = ""
		}
	}

	for _, b := range blocks {
		cam := b.details()
		info.Cameras = append(info.Cameras, cam)
		switch cam.Facing {
		case FacingBack:
			info.Back = true
		case FacingFront:
			info.Front = true
		}
		if b.has("android.flash.info.available", "TRUE") {
			info.Flash = true
		}
		if b.has("android.control.afAvailableModes", "AUTO") {
			info.Autofocus = true
		}
	}
	info.Count = len(blocks)

	level := Unknown
	for _, b := range blocks {
		if b.first("android.lens.facing") == "BACK" {
			level = hardwareLevel(b.first("android.info.supportedHardwareLevel"))
			break
		}
	}
	if level == Unknown && len(blocks) > 0 {
		level = hardwareLevel(blocks[0].first("android.info.supportedHardwareLevel"))
	}
	info.HardwareLevel = level
	return info
}

func cameraBlockID(header string) string {
	fields := strings.Fields(strings.Trim(header, "= "))
	for i, f := range fields {
		if strings.HasPrefix(f, "device@") {
			if j := strings.LastIndex(f, "/"); j >= 0 {
				return f[j+1:]
			}
		}
		if f == "Camera" && i+1 < len(fields) {
			if _, err := strconv.Atoi(fields[i+1]); err == nil {
				return fields[i+1]
			}
		}
	}
	return ""
}

func bracketValues(s string) []string {
	s, _, _ = strings.Cut(s, "]")
	return strings.Fields(s)
}

func (b *cameraBlock) first(tag string) string {
	if v := b.tags[tag]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (b *cameraBlock) has(tag, value string) bool {
	for _, v := range b.tags[tag] {
		if v == value {
			return true
		}
	}
	return false
}

func (b *cameraBlock) details() CameraDetails {
	cam := CameraDetails{
		ID:          b.id,
		Resolution:  maxResolution(b.tags["android.scaler.availableStreamConfigurations"]),
		Aperture:    joinFloats(b.tags["android.lens.info.availableApertures"], "f/", ""),
		FocalLength: joinFloats(b.tags["android.lens.info.availableFocalLengths"], "", "mm"),
		ISORange:    Unknown,
	}
	switch b.first("android.lens.facing") {
	case "BACK":
		cam.Facing = FacingBack
	case "FRONT":
		cam.Facing = FacingFront
	default:
		cam.Facing = FacingExternal
	}
	if iso := b.tags["android.sensor.info.sensitivityRange"]; len(iso) >= 2 {
		cam.ISORange = iso[0] + " - " + iso[1]
	}

	var features []string
	if b.has("android.flash.info.available", "TRUE") {
		features = append(features, "Flash")
	}
	if b.has("android.lens.info.availableOpticalStabilization", "ON") {
		features = append(features, "OIS")
	}
	cam.Features = "None"
	if len(features) > 0 {
		cam.Features = strings.Join(features, ", ")
	}
	return cam
}

// maxResolution picks the largest JPEG output from stream configuration
// quadruples (format, width, height, direction).
func maxResolution(cfg []string) string {
	var bestW, bestH int
	for i := 0; i+3 < len(cfg); i += 4 {
		if cfg[i] != jpegFormat || cfg[i+3] != "OUTPUT" {
			continue
		}
		w, errW := strconv.Atoi(cfg[i+1])
		h, errH := strconv.Atoi(cfg[i+2])
		if errW != nil || errH != nil {
			continue
		}
		if w*h > bestW*bestH {
			bestW, bestH = w, h
		}
	}
	if bestW == 0 {
		return Unknown
	}
	return fmt.Sprintf("%d x %d", bestW, bestH)
}

func joinFloats(values []string, prefix, suffix string) string {
	if len(values) == 0 {
		return Unknown
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			continue
		}
		parts = append(parts, prefix+strconv.FormatFloat(f, 'f', -1, 32)+suffix)
	}
	if len(parts) == 0 {
		return Unknown
	}
	return strings.Join(parts, ", ")
}

func hardwareLevel(v string) string {
	switch v {
	case "LEGACY":
		return "Legacy"
	case "LIMITED":
		return "Limited"
	case "FULL":
		return "Full"
	case "3", "LEVEL_3":
		return "Level 3"
	default:
		return Unknown
	}
}
