// Package discovery resolves cache nodes from DNS so a headless redis service
// can be addressed by name.
package discovery

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/platformbuilds/lineboard/pkg/logger"
)

// DNSConfig defines a DNS-based discovery target.
type DNSConfig struct {
	Enabled bool
	Service string // e.g. redis-headless.cache.svc.cluster.local
	Port    int    // used with A/AAAA lookups
	UseSRV  bool   // if true, query _redis._tcp.<service>
}

// Resolver turns a DNSConfig into "host:port" node lists.
type Resolver struct {
	cfg       DNSConfig
	logger    logger.Logger
	lookupIP  func(host string) ([]net.IP, error)
	lookupSRV func(service, proto, name string) (string, []*net.SRV, error)
}

func NewResolver(cfg DNSConfig, log logger.Logger) *Resolver {
	if cfg.Port <= 0 {
		cfg.Port = 6379
	}
	return &Resolver{cfg: cfg, logger: log, lookupIP: net.LookupIP, lookupSRV: net.LookupSRV}
}

// Nodes resolves the service now. Lookup failures yield an empty list.
func (r *Resolver) Nodes() []string {
	var out []string
	if r.cfg.UseSRV {
		service := r.cfg.Service
		if !strings.HasPrefix(service, "_") {
			service = fmt.Sprintf("_redis._tcp.%s", service)
		}
		_, addrs, err := r.lookupSRV("", "", service)
		if err != nil {
			r.logger.Warn("DNS discovery SRV lookup failed", "service", service, "error", err)
		}
		for _, a := range addrs {
			out = append(out, net.JoinHostPort(strings.TrimSuffix(a.Target, "."), strconv.Itoa(int(a.Port))))
		}
	} else {
		// A/AAAA records list the pods of a headless service.
		ips, err := r.lookupIP(r.cfg.Service)
		if err != nil {
			r.logger.Warn("DNS discovery lookup failed", "service", r.cfg.Service, "error", err)
		}
		for _, ip := range ips {
			out = append(out, net.JoinHostPort(ip.String(), strconv.Itoa(r.cfg.Port)))
		}
	}

	// de-duplicate + stable order
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(out))
	for _, e := range out {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		uniq = append(uniq, e)
	}
	sort.Strings(uniq)
	if len(uniq) == 0 {
		r.logger.Warn("DNS discovery resolved no nodes", "service", r.cfg.Service)
	}
	return uniq
}
