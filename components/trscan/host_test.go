package trscan_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-trscan/components/trscan"
)

func TestResolveHost(t *testing.T) {
	cases := []struct {
		name     string
		host     string
		headers  map[string]string
		local    net.Addr
		fallback string
		want     string
	}{
		{name: "request host without port", host: "dojo.example.test:9000", fallback: "8080", want: "http://dojo.example.test:8080"},
		{name: "fallback with colon", host: "dojo.example.test", fallback: ":8443", want: "http://dojo.example.test:8443"},
		{name: "no port known", host: "dojo.example.test", want: "http://dojo.example.test"},
		{
			name:    "forwarded headers",
			host:    "internal:9000",
			headers: map[string]string{"X-Forwarded-Proto": "https", "X-Forwarded-For": "dojo.example.test, 10.0.0.2"},
			want:    "https://dojo.example.test:443",
			local:   &net.TCPAddr{IP: net.ParseIP("10.0.0.5"), Port: 443},
		},
		{
			name:     "forwarded proto alone is ignored",
			host:     "dojo.example.test",
			headers:  map[string]string{"X-Forwarded-Proto": "https"},
			fallback: "80",
			want:     "http://dojo.example.test:80",
		},
		{name: "ipv6 host", host: "[::1]:8080", fallback: "8080", want: "http://[::1]:8080"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/trscan", nil)
			req.Host = tc.host
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if tc.local != nil {
				req = req.WithContext(context.WithValue(req.Context(), http.LocalAddrContextKey, tc.local))
			}
			if got := trscan.ResolveHost(req, tc.fallback); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
