// Package sshexec runs one-shot commands on a remote host over SSH with a pinned host key.
package sshexec

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

const (
	defaultPort           = "22"
	defaultDialTimeout    = 5 * time.Second
	defaultCommandTimeout = 10 * time.Second
)

// Config describes one remote endpoint.
type Config struct {
	Host     string
	User     string
	Password string
	// HostKey is the only key the server may present.
	HostKey        ssh.PublicKey
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	Logger         *zap.Logger
}

// Client is an authenticated SSH connection.
type Client struct {
	client         *ssh.Client
	commandTimeout time.Duration
	logger         *zap.Logger
}

// Output holds the captured streams of one command.
type Output struct {
	Stdout     []string
	Stderr     []string
	ExitStatus int
}

// ParseHostKey accepts either the base64 wire encoding of a public key or an
// authorized_keys style line ("ssh-rsa AAAA... comment").
func ParseHostKey(encoded string) (ssh.PublicKey, error) {
	s := strings.TrimSpace(encoded)
	if s == "" {
		return nil, errors.New("sshexec: empty host key")
	}
	if strings.ContainsAny(s, " \t") {
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("sshexec: parse authorized key: %w", err)
		}
		return key, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("sshexec: decode host key: %w", err)
	}
	key, err := ssh.ParsePublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("sshexec: parse host key: %w", err)
	}
	return key, nil
}

// Dial connects and authenticates. The handshake fails unless the server presents cfg.HostKey.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.HostKey == nil {
		return nil, errors.New("sshexec: host key is required")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("sshexec: host is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	commandTimeout := cfg.CommandTimeout
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeout
	}

	addr := hostPort(cfg.Host)
	clientCfg := &ssh.ClientConfig{
		User:              cfg.User,
		Auth:              []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback:   ssh.FixedHostKey(cfg.HostKey),
		HostKeyAlgorithms: hostKeyAlgorithms(cfg.HostKey),
		Timeout:           dialTimeout,
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sshexec: dial %s: %w", addr, err)
	}

	// The deadline bounds the handshake and is cleared once the session is up.
	_ = conn.SetDeadline(time.Now().Add(dialTimeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sshexec: handshake %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	logger.Debug("ssh session established", zap.String("addr", addr), zap.String("server_version", string(sshConn.ServerVersion())))

	return &Client{
		client:         ssh.NewClient(sshConn, chans, reqs),
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

// Run executes command and returns its trimmed stdout lines. The exit status is ignored;
// routers report partial failures in-band.
func (c *Client) Run(ctx context.Context, command string) ([]string, error) {
	out, err := c.Exec(ctx, command)
	if err != nil {
		return nil, err
	}
	return out.Stdout, nil
}

// Exec executes command within the configured command timeout.
func (c *Client) Exec(ctx context.Context, command string) (*Output, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("sshexec: open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	ctx, cancel := context.WithTimeout(ctx, c.commandTimeout)
	defer cancel()

	c.logger.Debug("executing command", zap.String("command", command))

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil, fmt.Errorf("sshexec: run %q: %w", command, ctx.Err())
	case err = <-done:
	}

	out := &Output{
		Stdout: splitLines(stdout.String()),
		Stderr: splitLines(stderr.String()),
	}

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitStatus = exitErr.ExitStatus()
	default:
		return nil, fmt.Errorf("sshexec: run %q: %w", command, err)
	}

	c.logger.Debug("command finished",
		zap.String("command", command),
		zap.Strings("stdout", out.Stdout),
		zap.Strings("stderr", out.Stderr),
		zap.Int("exit_status", out.ExitStatus),
	)

	return out, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func hostPort(host string) string {
	host = strings.TrimSpace(host)
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), defaultPort)
}

// hostKeyAlgorithms makes the server present the pinned key type rather than its preferred one.
func hostKeyAlgorithms(key ssh.PublicKey) []string {
	if key.Type() == ssh.KeyAlgoRSA {
		return []string{ssh.KeyAlgoRSASHA512, ssh.KeyAlgoRSASHA256, ssh.KeyAlgoRSA}
	}
	return []string{key.Type()}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}
