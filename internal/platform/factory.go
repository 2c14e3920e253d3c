package platform

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// RemoteConfig specifies how to reach a remote device over SSH.
type RemoteConfig struct {
	// Host is the hostname or IP address of the device.
	Host string

	// Port is the SSH port (default: 22).
	Port int

	// User is the SSH username.
	User string

	// AuthMethod specifies how to authenticate.
	AuthMethod AuthMethod

	// KnownHostsPath enables host key verification against a known_hosts
	// file. Host keys are not verified when empty.
	KnownHostsPath string

	// CommandTimeout bounds each remote command (default: 5s).
	CommandTimeout time.Duration

	Logger  devinfo.Logger
	Metrics *devinfo.Metrics
}

// AuthMethod defines SSH authentication methods.
type AuthMethod interface {
	isAuthMethod()
}

// PasswordAuth authenticates using a password.
type PasswordAuth struct {
	Password string
}

// KeyAuth authenticates using a private key file.
type KeyAuth struct {
	PrivateKeyPath string
	Passphrase     string
}

// AgentAuth authenticates through the agent at SSH_AUTH_SOCK.
type AgentAuth struct{}

func (PasswordAuth) isAuthMethod() {}
func (KeyAuth) isAuthMethod()      {}
func (AgentAuth) isAuthMethod()    {}

// ParseTarget splits "user@host:port" into its parts. The port is 0 when
// absent and the user is empty when absent.
func ParseTarget(target string) (user, host string, port int, err error) {
	if target == "" {
		return "", "", 0, fmt.Errorf("empty target")
	}
	if at := strings.LastIndex(target, "@"); at >= 0 {
		user, target = target[:at], target[at+1:]
	}
	host = target
	if h, p, splitErr := net.SplitHostPort(target); splitErr == nil {
		host = h
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid port %q", p)
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("missing host in %q", target)
	}
	return user, host, port, nil
}
