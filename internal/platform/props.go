package platform

import (
	"bufio"
	"context"
	"strings"
)

// Props holds Android system properties as reported by getprop.
// A nil or empty Props means the host is not Android.
type Props map[string]string

// LoadProps runs getprop through src. Hosts without getprop yield empty
// Props and the command error.
func LoadProps(ctx context.Context, src Source) (Props, error) {
	out, err := src.Run(ctx, "getprop")
	if err != nil {
		return Props{}, err
	}
	return ParseProps(out), nil
}

// ParseProps parses getprop output lines of the form "[key]: [value]".
func ParseProps(out string) Props {
	props := make(Props)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "]: [")
		if !ok || !strings.HasPrefix(key, "[") || !strings.HasSuffix(value, "]") {
			continue
		}
		props[key[1:]] = value[:len(value)-1]
	}
	return props
}

// Get returns the value for key, or "" when it is absent.
func (p Props) Get(key string) string {
	return p[key]
}

// First returns the first non-empty value among keys.
func (p Props) First(keys ...string) string {
	for _, k := range keys {
		if v := p[k]; v != "" {
			return v
		}
	}
	return ""
}

// IsAndroid reports whether the properties come from an Android build.
func (p Props) IsAndroid() bool {
	return p["ro.build.version.sdk"] != ""
}
