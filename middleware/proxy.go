package middleware

import (
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewOriginProxy returns a reverse proxy to the CMS at target. The client's
// Accept-Encoding is dropped so the transport negotiates compression itself
// and hands ResponseRewriter a decoded body.
func NewOriginProxy(target *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Header.Del("Accept-Encoding")
	}
	return proxy
}
