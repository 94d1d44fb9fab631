package http

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"strings"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// Network implements ports.Network. It optionally runs an interface bring-up
// command, then probes the producer with a TCP dial. Each Connect call is a
// single attempt; retry policy belongs to the caller.
type Network struct {
	addr    string
	up      []string
	down    []string
	dialer  net.Dialer
	logger  ports.Logger
	started bool
}

// NewNetwork creates a Network probing the host of endpoint. up and down are
// optional argv slices run around each replenish (for example to power a
// Wi-Fi radio on and off).
func NewNetwork(endpoint string, up, down []string, logger ports.Logger) (*Network, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return &Network{
		addr:   net.JoinHostPort(u.Hostname(), port),
		up:     up,
		down:   down,
		logger: logger,
	}, nil
}

// Connect brings the link up on the first attempt and checks the producer
// accepts connections.
func (n *Network) Connect(ctx context.Context) error {
	if !n.started && len(n.up) > 0 {
		if err := run(ctx, n.up); err != nil {
			return fmt.Errorf("%w: bring-up: %w", domain.ErrNoConnectivity, err)
		}
		n.logger.Debug("network bring-up done", ports.String("command", strings.Join(n.up, " ")))
	}
	n.started = true

	conn, err := n.dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", domain.ErrNoConnectivity, n.addr, err)
	}
	return conn.Close()
}

// Disconnect runs the tear-down command, if any.
func (n *Network) Disconnect(ctx context.Context) error {
	if !n.started {
		return nil
	}
	n.started = false
	if len(n.down) == 0 {
		return nil
	}
	if err := run(ctx, n.down); err != nil {
		return fmt.Errorf("tear-down: %w", err)
	}
	return nil
}

func run(ctx context.Context, argv []string) error {
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
