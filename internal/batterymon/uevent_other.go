//go:build !linux

package batterymon

import (
	"context"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

func watchUevents(context.Context) (<-chan struct{}, error) {
	return nil, platform.ErrUnsupported
}
