package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Resolver finds the client address of a request. Forwarding headers are
// only read when the direct peer is a trusted proxy, since anyone can send
// them.
type Resolver struct {
	headers []string
	proxies []netip.Prefix
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTrustedHeaders sets the headers consulted, in order, when the peer
// is trusted. X-Forwarded-For is read right to left, skipping trusted
// proxies.
func WithTrustedHeaders(headers ...string) Option {
	return func(r *Resolver) {
		for _, h := range headers {
			r.headers = append(r.headers, http.CanonicalHeaderKey(strings.TrimSpace(h)))
		}
	}
}

// WithTrustedProxies sets the peer networks allowed to forward headers.
func WithTrustedProxies(prefixes ...netip.Prefix) Option {
	return func(r *Resolver) {
		r.proxies = append(r.proxies, prefixes...)
	}
}

// New returns a Resolver. Without options it uses the TCP peer address only.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParsePrefixes parses CIDRs or bare addresses.
func ParsePrefixes(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			addr, err := netip.ParseAddr(v)
			if err != nil {
				return nil, err
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

// IP returns the client address, or "" when none can be parsed.
func (r *Resolver) IP(req *http.Request) string {
	peer, ok := peerAddr(req.RemoteAddr)
	if !ok {
		return ""
	}
	if len(r.headers) == 0 || !r.trusted(peer) {
		return peer.String()
	}

	for _, h := range r.headers {
		value := req.Header.Get(h)
		if value == "" {
			continue
		}
		if h == "X-Forwarded-For" {
			if ip, ok := r.fromForwardedFor(value); ok {
				return ip.String()
			}
			continue
		}
		if ip, err := netip.ParseAddr(strings.TrimSpace(value)); err == nil {
			return ip.Unmap().String()
		}
	}
	return peer.String()
}

func (r *Resolver) fromForwardedFor(value string) (netip.Addr, bool) {
	hops := strings.Split(value, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}, false
		}
		ip = ip.Unmap()
		if !r.trusted(ip) {
			return ip, true
		}
	}
	return netip.Addr{}, false
}

func (r *Resolver) trusted(ip netip.Addr) bool {
	for _, p := range r.proxies {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

func peerAddr(remote string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}
