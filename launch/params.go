package launch

import (
	"net/netip"
	"strconv"
)

// Parameters is the assembled launch record handed to the node executable.
// It is built exactly once by the selector and consumed once by the
// launcher; unset optional fields are omitted from the child's argv.
type Parameters struct {
	LocalIP  netip.Addr // zero value when no local address was found
	PublicIP netip.Addr // zero value when discovery and negotiation both failed

	HTTPPort uint16
	P2PPort  uint16 // meaningful only when HasP2PPort
	// HasP2PPort distinguishes "no inbound mapping" from port 0.
	HasP2PPort bool

	BootstrapPath    string
	P2PBootstrapAddr string
	DBPath           string

	AutoreplicantOrigin string

	Offline  bool
	TestMode bool
}

// Args renders the record as node startup arguments.
func (p *Parameters) Args() []string {
	var args []string
	if p.LocalIP.IsValid() {
		args = append(args, "--local-ip", p.LocalIP.String())
	}
	if p.PublicIP.IsValid() {
		args = append(args, "--public-ip", p.PublicIP.String())
	}
	args = append(args, "--http-port", strconv.Itoa(int(p.HTTPPort)))
	if p.HasP2PPort {
		args = append(args, "--p2p-port", strconv.Itoa(int(p.P2PPort)))
	}
	if p.BootstrapPath != "" {
		args = append(args, "--bootstrap-path", p.BootstrapPath)
	}
	if p.P2PBootstrapAddr != "" {
		args = append(args, "--p2p-bootstrap-addr", p.P2PBootstrapAddr)
	}
	if p.DBPath != "" {
		args = append(args, "--db-path", p.DBPath)
	}
	if p.AutoreplicantOrigin != "" {
		args = append(args, "--autoreplicant-procedure", p.AutoreplicantOrigin)
	}
	if p.Offline {
		args = append(args, "--offline")
	}
	if p.TestMode {
		args = append(args, "--test-mode")
	}
	return args
}
