//go:build !linux && !darwin && !freebsd

package platform

func localUname() (Uname, error) {
	return Uname{}, ErrUnsupported
}
