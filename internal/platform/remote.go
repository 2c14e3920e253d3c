package platform

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/go-devinfo/pkg/devinfo"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// RemoteSource implements Source for a device reachable over SSH. Files
// are read with cat and directories listed with ls, so nothing needs to be
// installed on the device.
type RemoteSource struct {
	config     RemoteConfig
	client     *ssh.Client
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	cmdTimeout time.Duration
	logger     devinfo.Logger
	metrics    *devinfo.Metrics
}

// NewRemoteSource validates config and returns an unconnected Source.
// Call Connect before use.
func NewRemoteSource(config RemoteConfig) (*RemoteSource, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if config.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if config.AuthMethod == nil {
		return nil, fmt.Errorf("authentication method is required")
	}
	if config.Port == 0 {
		config.Port = 22
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 5 * time.Second
	}

	return &RemoteSource{
		config:     config,
		cmdTimeout: config.CommandTimeout,
		logger:     devinfo.OrNop(config.Logger),
		metrics:    devinfo.OrDefault(config.Metrics),
	}, nil
}

func (p *RemoteSource) Name() string {
	return fmt.Sprintf("ssh://%s@%s:%d", p.config.User, p.config.Host, p.config.Port)
}

// Connect dials the device and checks that it runs Linux (Android included).
func (p *RemoteSource) Connect(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	sshConfig, err := p.buildSSHConfig()
	if err != nil {
		return fmt.Errorf("failed to build SSH config: %w", err)
	}

	addr := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	p.mu.Lock()
	p.client = client
	p.mu.Unlock()

	out, err := p.runCommand("uname -s")
	if err != nil {
		p.Close()
		return fmt.Errorf("failed to detect remote OS: %w", err)
	}
	if goos := strings.ToLower(strings.TrimSpace(out)); goos != "linux" {
		p.Close()
		return fmt.Errorf("unsupported remote OS: %s", goos)
	}

	p.logger.Info("connected to remote device", "source", p.Name())
	return nil
}

func (p *RemoteSource) buildSSHConfig() (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	switch auth := p.config.AuthMethod.(type) {
	case PasswordAuth:
		authMethods = append(authMethods, ssh.Password(auth.Password))
	case KeyAuth:
		key, err := os.ReadFile(auth.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		var signer ssh.Signer
		if auth.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(auth.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	case AgentAuth:
		socket := os.Getenv("SSH_AUTH_SOCK")
		if socket == "" {
			return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
		}
		authMethods = append(authMethods, ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			conn, err := net.Dial("unix", socket)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to SSH agent: %w", err)
			}
			defer conn.Close()
			return agent.NewClient(conn).Signers()
		}))
	default:
		return nil, fmt.Errorf("unsupported auth method type: %T", auth)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if p.config.KnownHostsPath != "" {
		cb, err := knownhosts.New(p.config.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		p.logger.Warn("host key verification disabled", "host", p.config.Host)
	}

	return &ssh.ClientConfig{
		User:            p.config.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}, nil
}

func (p *RemoteSource) ReadFile(path string) ([]byte, error) {
	out, err := p.runCommand("cat " + shellQuote(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return []byte(out), nil
}

func (p *RemoteSource) ReadDir(path string) ([]string, error) {
	out, err := p.runCommand("ls -1 " + shellQuote(path))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	return parseLsOutput(out), nil
}

func (p *RemoteSource) Statfs(path string) (DiskUsage, error) {
	out, err := p.runCommand("stat -f -c '%S %b %f %a' " + shellQuote(path))
	if err != nil {
		return DiskUsage{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	return parseStatfsOutput(out)
}

func (p *RemoteSource) Run(ctx context.Context, name string, args ...string) (string, error) {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(name))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return p.runCommandContext(ctx, strings.Join(parts, " "))
}

func (p *RemoteSource) runCommand(cmd string) (string, error) {
	return p.runCommandContext(context.Background(), cmd)
}

// runCommandContext executes cmd in a fresh session. The remote process is
// killed on timeout or when either context is cancelled.
func (p *RemoteSource) runCommandContext(ctx context.Context, cmd string) (string, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()

	if client == nil {
		return "", fmt.Errorf("SSH client not connected")
	}

	start := time.Now()
	defer func() { p.metrics.RecordRemoteCommand(time.Since(start)) }()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	timer := time.NewTimer(p.cmdTimeout)
	defer timer.Stop()

	kill := func() {
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
	}

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), nil
	case <-timer.C:
		kill()
		return "", fmt.Errorf("command timed out after %v", p.cmdTimeout)
	case <-ctx.Done():
		kill()
		return "", ctx.Err()
	case <-p.ctx.Done():
		kill()
		return "", p.ctx.Err()
	}
}

func (p *RemoteSource) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		err := p.client.Close()
		p.client = nil
		return err
	}
	return nil
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' || r == ':' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func parseLsOutput(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// parseStatfsOutput parses "bsize blocks bfree bavail" from stat -f.
func parseStatfsOutput(out string) (DiskUsage, error) {
	fields := strings.Fields(out)
	if len(fields) < 4 {
		return DiskUsage{}, fmt.Errorf("unexpected stat output %q", strings.TrimSpace(out))
	}
	values := make([]uint64, 4)
	for i := range values {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return DiskUsage{}, fmt.Errorf("parsing stat field %d: %w", i, err)
		}
		values[i] = v
	}
	bsize := values[0]
	return DiskUsage{
		Total:     values[1] * bsize,
		Free:      values[2] * bsize,
		Available: values[3] * bsize,
	}, nil
}
