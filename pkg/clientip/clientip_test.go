package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/clientip"
)

func TestResolver_IP(t *testing.T) {
	t.Parallel()

	proxies, err := clientip.ParsePrefixes([]string{"10.0.0.0/8", "192.0.2.1"})
	require.NoError(t, err)

	behindProxy := clientip.New(
		clientip.WithTrustedProxies(proxies...),
		clientip.WithTrustedHeaders("CF-Connecting-IP", "X-Forwarded-For"),
	)

	tests := []struct {
		name     string
		resolver *clientip.Resolver
		remote   string
		headers  map[string]string
		want     string
	}{
		{"peer only", clientip.New(), "203.0.113.9:5000", nil, "203.0.113.9"},
		{"headers ignored by default", clientip.New(), "203.0.113.9:5000",
			map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.9"},
		{"untrusted peer cannot spoof", behindProxy, "203.0.113.9:5000",
			map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.9"},
		{"trusted header", behindProxy, "10.1.2.3:443",
			map[string]string{"CF-Connecting-IP": "198.51.100.7"}, "198.51.100.7"},
		{"forwarded for skips trusted hops", behindProxy, "10.1.2.3:443",
			map[string]string{"X-Forwarded-For": "198.51.100.1, 203.0.113.5, 10.9.9.9"}, "203.0.113.5"},
		{"single trusted address", behindProxy, "192.0.2.1:80",
			map[string]string{"X-Forwarded-For": "198.51.100.2"}, "198.51.100.2"},
		{"garbage header falls back to peer", behindProxy, "10.1.2.3:443",
			map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.1.2.3"},
		{"ipv6 peer", clientip.New(), "[2001:db8::1]:8080", nil, "2001:db8::1"},
		{"ipv4 mapped peer", clientip.New(), "[::ffff:203.0.113.9]:80", nil, "203.0.113.9"},
		{"unparseable peer", clientip.New(), "pipe", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.resolver.IP(req))
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	t.Parallel()

	got, err := clientip.ParsePrefixes([]string{"10.0.0.1/8", " ", "::1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "::1/128", got[1].String())

	_, err = clientip.ParsePrefixes([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}
