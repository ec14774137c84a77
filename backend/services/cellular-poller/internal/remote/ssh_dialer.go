package remote

import (
	"context"

	"cellmon/backend/libs/sshexec"
	"cellmon/backend/services/cellular-poller/internal/service"
)

// SSHDialer opens router sessions over SSH.
type SSHDialer struct {
	cfg sshexec.Config
}

// NewSSHDialer returns a dialer for cfg. The host key must be set.
func NewSSHDialer(cfg sshexec.Config) *SSHDialer {
	return &SSHDialer{cfg: cfg}
}

// Dial connects and authenticates.
func (d *SSHDialer) Dial(ctx context.Context) (service.RemoteSession, error) {
	client, err := sshexec.Dial(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}
