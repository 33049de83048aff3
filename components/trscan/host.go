package trscan

import (
	"net"
	"net/http"
	"strings"
)

// ResolveHost returns the absolute base URL links in reports point back to.
// Forwarding headers win when both are present; otherwise the request
// scheme and host are used with any port dropped. The listener port is
// appended, falling back to fallbackPort.
func ResolveHost(r *http.Request, fallbackPort string) string {
	base := forwardedBase(r)
	if base == "" {
		base = requestScheme(r) + "://" + bracket(stripPort(r.Host))
	}
	port := listenerPort(r)
	if port == "" {
		port = strings.TrimPrefix(fallbackPort, ":")
	}
	if port == "" {
		return base
	}
	return base + ":" + port
}

func forwardedBase(r *http.Request) string {
	proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))
	forwarded := r.Header.Get("X-Forwarded-For")
	if proto == "" || forwarded == "" {
		return ""
	}
	client, _, _ := strings.Cut(forwarded, ",")
	client = strings.TrimSpace(client)
	if client == "" {
		return ""
	}
	return proto + "://" + bracket(client)
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if r.URL != nil && r.URL.Scheme != "" {
		return r.URL.Scheme
	}
	return "http"
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

func bracket(host string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		return "[" + host + "]"
	}
	return host
}

func listenerPort(r *http.Request) string {
	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok || addr == nil {
		return ""
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return port
}
