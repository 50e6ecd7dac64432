package netinfo

import (
	"context"
	"net"
	"time"
)

const probeHost = "ipv6.google.com"

// Resolver reports the IPv6 facts the server shares with clients: which
// address peers should dial back to and whether the host has IPv6
// connectivity at all.
type Resolver struct {
	interfaceAddrs func() ([]net.Addr, error)
	lookupIP       func(ctx context.Context, network, host string) ([]net.IP, error)
}

func NewResolver() *Resolver {
	return &Resolver{
		interfaceAddrs: net.InterfaceAddrs,
		lookupIP:       net.DefaultResolver.LookupIP,
	}
}

// ServerAddress returns the preferred IPv6 address of this host. Global
// unicast wins over link-local; the loopback address is the fallback when
// nothing else is assigned.
func (r *Resolver) ServerAddress() string {
	addrs, err := r.interfaceAddrs()
	if err != nil {
		return "::1"
	}

	var candidates []net.IP
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP
		if ip.To4() != nil || ip.To16() == nil {
			continue
		}
		candidates = append(candidates, ip)
	}

	return PickAddress(candidates)
}

// PickAddress selects from IPv6 candidates by priority: global > link-local > ::1.
func PickAddress(candidates []net.IP) string {
	for _, ip := range candidates {
		if ip.IsGlobalUnicast() && !ip.IsPrivate() {
			return ip.String()
		}
	}
	for _, ip := range candidates {
		if ip.IsGlobalUnicast() {
			return ip.String()
		}
	}
	for _, ip := range candidates {
		if ip.IsLinkLocalUnicast() {
			return ip.String()
		}
	}
	return "::1"
}

// Available probes whether IPv6 name resolution works from this host.
func (r *Resolver) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ips, err := r.lookupIP(ctx, "ip6", probeHost)
	return err == nil && len(ips) > 0
}
