package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"net/netip"

	"github.com/go-chi/chi/v5"
)

// RegisterPprof mounts the runtime profiler under /debug/pprof. Only peers
// inside allowedCIDRs reach it; the storefront is public, so everyone else
// gets 403.
func RegisterPprof(r chi.Router, allowedCIDRs []string, logger *slog.Logger) {
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, logger))
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Post("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/*", pprof.Index)
	})
}

// IPAllowlist rejects requests whose peer address lies outside every prefix.
// Forwarding headers are ignored: only the TCP peer counts. Prefixes that do
// not parse are logged and dropped.
func IPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			logger.Warn("ignoring invalid allowlist prefix",
				slog.String("cidr", c),
				slog.String("error", err.Error()),
			)
			continue
		}
		prefixes = append(prefixes, p.Masked())
	}

	permitted := func(addr netip.Addr) bool {
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := peerAddr(r.RemoteAddr)
			if !ok || !permitted(addr) {
				logger.Warn("debug endpoint refused",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "access restricted by IP allowlist")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// peerAddr extracts the IP from a RemoteAddr with or without a port.
// IPv4-mapped IPv6 addresses are unmapped so IPv4 prefixes match them.
func peerAddr(remote string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(remote); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}
