// Package nat obtains a public port mapping from a UPnP-capable gateway by
// delegating to an external negotiator utility.
//
// Negotiation is a single best-effort attempt. There is no lease renewal and
// no retry; the mapping's lifetime is whatever the gateway granted, and a
// failed negotiation simply leaves the node without inbound reachability.
package nat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNegotiationFailed reports that no mapping was obtained. Callers are
// expected to recover by proceeding without one.
var ErrNegotiationFailed = errors.New("nat: negotiation failed")

// Mapping is a gateway-granted public endpoint forwarding to this host.
type Mapping struct {
	PublicAddr netip.Addr
	PublicPort uint16
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s:%d", m.PublicAddr, m.PublicPort)
}

// Negotiator requests one port mapping for a local address.
type Negotiator interface {
	Negotiate(ctx context.Context, local netip.Addr, port uint16) (Mapping, error)
}

// ExecNegotiator shells out to an external UPnP negotiation utility. The
// utility is invoked once with the local address and desired port as its two
// arguments and must print a single "ip:port" line on success.
type ExecNegotiator struct {
	// Bin is the path to the negotiator binary. If empty, "upnp-negotiator"
	// is resolved from PATH.
	Bin string
	// Env optionally overrides the command environment. If nil, the process
	// environment is used.
	Env []string
}

func (n *ExecNegotiator) Negotiate(ctx context.Context, local netip.Addr, port uint16) (Mapping, error) {
	bin := n.Bin
	if bin == "" {
		bin = "upnp-negotiator"
	}

	cmd := exec.CommandContext(ctx, bin, local.String(), strconv.Itoa(int(port)))
	if n.Env != nil {
		cmd.Env = n.Env
	}

	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			s := strings.TrimSpace(string(ee.Stderr))
			if s == "" {
				return Mapping{}, fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
			}
			return Mapping{}, fmt.Errorf("%w: %s", ErrNegotiationFailed, s)
		}
		return Mapping{}, fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
	}

	mapping, err := ParseMapping(string(bytes.TrimSpace(out)))
	if err != nil {
		return Mapping{}, err
	}
	return mapping, nil
}

// ParseMapping parses one "ip:port" line as printed by the negotiator
// utility. Empty or malformed output is a failed negotiation.
func ParseMapping(line string) (Mapping, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Mapping{}, fmt.Errorf("%w: empty negotiator output", ErrNegotiationFailed)
	}
	// Only the first line counts; some gateways chat on stdout.
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	ap, err := netip.ParseAddrPort(line)
	if err != nil {
		return Mapping{}, fmt.Errorf("%w: malformed negotiator output %q", ErrNegotiationFailed, line)
	}
	if !ap.Addr().Is4() {
		return Mapping{}, fmt.Errorf("%w: non-IPv4 mapping %q", ErrNegotiationFailed, line)
	}
	return Mapping{PublicAddr: ap.Addr(), PublicPort: ap.Port()}, nil
}
