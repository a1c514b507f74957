package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

type DNSClass string

const (
	DNSResolves     DNSClass = "RESOLVES"
	DNSNoARecord    DNSClass = "NO_A_RECORD"
	DNSNXDomain     DNSClass = "NXDOMAIN"
	DNSServfailOrTO DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName  DNSClass = "INVALID_NAME"
)

type DNSStatus struct {
	Domain        string
	IPs           []net.IP
	HasNS         bool
	Class         DNSClass
	ResolverError string
}

// CheckDNS classifies how domain resolves. The NS lookup only runs when the
// address lookup failed, to tell a missing record apart from a missing zone.
func CheckDNS(ctx context.Context, r *net.Resolver, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.IPs = ips
		s.Class = DNSResolves
		return s
	}
	if err != nil {
		s.ResolverError = err.Error()
	}

	if ns, nsErr := r.LookupNS(ctx, s.Domain); nsErr == nil && len(ns) > 0 {
		s.HasNS = true
		s.Class = DNSNoARecord
		return s
	}

	var de *net.DNSError
	switch {
	case errors.As(err, &de) && de.IsNotFound:
		s.Class = DNSNXDomain
	case err != nil:
		s.Class = DNSServfailOrTO
	default:
		s.Class = DNSNXDomain
	}
	return s
}

// DNS probes that a target's host resolves to at least one address.
type DNS struct {
	Resolver *net.Resolver
	Target   string
}

func NewDNS(target string) *DNS {
	return &DNS{Resolver: net.DefaultResolver, Target: target}
}

func (d *DNS) Execute(ctx context.Context, _ string) (time.Duration, error) {
	start := time.Now()
	st := CheckDNS(ctx, d.Resolver, extractHost(d.Target))
	if st.Class != DNSResolves {
		if st.ResolverError != "" {
			return 0, fmt.Errorf("dns probe: %s: %s", st.Class, st.ResolverError)
		}
		return 0, fmt.Errorf("dns probe: %s", st.Class)
	}
	return time.Since(start), nil
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		if strings.Contains(raw, "://") {
			return ""
		}
		return raw
	}
	return u.Hostname()
}
