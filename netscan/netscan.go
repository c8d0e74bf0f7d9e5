// Package netscan discovers the addresses a node can be reached at: the
// host's own non-loopback IPv4 addresses and, through an external echo
// service, the NAT-side public address.
//
// Discovery is single-attempt and synchronous. A failed or malformed echo
// response is never fatal and is never retried within a run; the caller
// proceeds without a public address.
package netscan

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
)

// LocalAddresses returns the IPv4 addresses bound to active non-loopback
// interfaces, in enumeration order. An empty result is valid, not an error.
func LocalAddresses() ([]netip.Addr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("netscan: enumerating interfaces: %w", err)
	}

	var out []netip.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			addr, ok := netip.AddrFromSlice(ip4)
			if !ok || addr.IsLoopback() {
				continue
			}
			out = append(out, addr)
		}
	}
	return out, nil
}

// Echo is a collaborator that reports this host's public address as seen
// from outside the NAT. Implementations issue exactly one query.
type Echo interface {
	PublicAddress(ctx context.Context) (netip.Addr, error)
}

// PublicAddress queries echo once and absorbs every failure: on timeout,
// unavailability, or a malformed response it logs and reports no address.
func PublicAddress(ctx context.Context, echo Echo, log *slog.Logger) (netip.Addr, bool) {
	addr, err := echo.PublicAddress(ctx)
	if err != nil {
		log.Warn("public address discovery failed", "error", err)
		return netip.Addr{}, false
	}
	log.Info("public address discovered", "addr", addr.String())
	return addr, true
}
