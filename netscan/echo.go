package netscan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Default echo endpoints. The DNS echo is the OpenDNS mirror trick: an A
// query for myip.opendns.com answered by an OpenDNS resolver returns the
// querier's public address.
const (
	DefaultDNSResolver = "resolver1.opendns.com:53"
	DefaultDNSName     = "myip.opendns.com"

	defaultEchoTimeout = 5 * time.Second
)

// DNSEcho discovers the public address with a single DNS A query against a
// mirror resolver.
type DNSEcho struct {
	// Resolver is the "host:port" of the mirror resolver. Defaults to
	// DefaultDNSResolver.
	Resolver string
	// Name is the mirror name to query. Defaults to DefaultDNSName.
	Name string
	// Timeout bounds the whole exchange. Defaults to 5s.
	Timeout time.Duration
}

func (d *DNSEcho) PublicAddress(ctx context.Context) (netip.Addr, error) {
	resolver := d.Resolver
	if resolver == "" {
		resolver = DefaultDNSResolver
	}
	name := d.Name
	if name == "" {
		name = DefaultDNSName
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultEchoTimeout
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeA)

	client := &dns.Client{Timeout: timeout}
	resp, _, err := client.ExchangeContext(ctx, m, resolver)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("netscan: dns echo %s: %w", resolver, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("netscan: dns echo %s: rcode %s", resolver, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(a.A.To4())
		if ok {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("netscan: dns echo %s: no A record in answer", resolver)
}

// HTTPEcho discovers the public address with a single GET against an
// endpoint whose body is the caller's address in dotted-quad form.
type HTTPEcho struct {
	// URL of the echo endpoint.
	URL string
	// Client optionally overrides the HTTP client. Defaults to one with a
	// 5s timeout.
	Client *http.Client
}

func (h *HTTPEcho) PublicAddress(ctx context.Context) (netip.Addr, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: defaultEchoTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("netscan: http echo: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("netscan: http echo %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("netscan: http echo %s: status %d", h.URL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("netscan: http echo %s: %w", h.URL, err)
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(string(body)))
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("netscan: http echo %s: malformed body %q", h.URL, strings.TrimSpace(string(body)))
	}
	return addr, nil
}
