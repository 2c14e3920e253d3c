package platform

import (
	"context"
	"fmt"
	"strings"
)

// Uname holds the kernel identification of a host.
type Uname struct {
	Sysname string
	Release string
	Machine string
}

// ReadUname returns the kernel identification of the host behind src.
// The local host is queried with uname(2); other sources run uname -srm.
func ReadUname(ctx context.Context, src Source) (Uname, error) {
	if IsLocalHost(src) {
		return localUname()
	}
	out, err := src.Run(ctx, "uname", "-srm")
	if err != nil {
		return Uname{}, err
	}
	return parseUname(out)
}

func parseUname(out string) (Uname, error) {
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return Uname{}, fmt.Errorf("unexpected uname output %q", strings.TrimSpace(out))
	}
	return Uname{Sysname: fields[0], Release: fields[1], Machine: fields[len(fields)-1]}, nil
}
