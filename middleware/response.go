// Package middleware holds the net/http middleware that sits in front of the
// CMS: JSON response URL rewriting and CDN cache headers.
package middleware

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"mediaedge/config"
	"mediaedge/logger"
	"mediaedge/metrics"
)

// bufferedResponse holds a downstream response until the rewriter decides
// whether to touch it.
type bufferedResponse struct {
	w      http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header {
	return b.w.Header()
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// ResponseRewriter returns middleware that rewrites url fields in JSON GET
// responses from the API base to the CDN base. Other methods and non-JSON
// bodies pass through untouched.
func ResponseRewriter(cfg config.CDN) func(http.Handler) http.Handler {
	apiBase := cfg.APIBaseOrDefault()
	cdnBase := cfg.CDNBase

	return func(next http.Handler) http.Handler {
		if cdnBase == "" {
			logger.Warn("No CDN base configured, response URL rewriting disabled")
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			buf := &bufferedResponse{w: w}
			next.ServeHTTP(buf, r)
			if buf.status == 0 {
				buf.status = http.StatusOK
			}

			body, outcome, count := rewriteBody(w.Header(), buf.body.Bytes(), apiBase, cdnBase)
			metrics.RecordResponse(outcome, count)
			if count > 0 {
				logger.Debugf("Rewrote %d url fields in %s", count, r.URL.Path)
				w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			}

			w.WriteHeader(buf.status)
			if _, err := w.Write(body); err != nil {
				logger.Warnf("Failed to write rewritten response for %s: %v", r.URL.Path, err)
			}
		})
	}
}

// rewriteBody returns the body to send, an outcome label, and the number of
// url fields rewritten.
func rewriteBody(h http.Header, body []byte, apiBase, cdnBase string) ([]byte, string, int) {
	if h.Get("Content-Encoding") != "" {
		return body, "encoded", 0
	}
	if !isJSON(h.Get("Content-Type")) || len(body) == 0 {
		return body, "passthrough", 0
	}

	node, err := Decode(body)
	if err != nil {
		logger.Debugf("Response body is not decodable JSON, passing through: %v", err)
		return body, "invalid", 0
	}
	if node.Kind == Scalar {
		return body, "passthrough", 0
	}

	count := RewriteURLs(node, apiBase, cdnBase)
	if count == 0 {
		return body, "unchanged", 0
	}
	out, err := node.Encode()
	if err != nil {
		logger.Errorf("Failed to encode rewritten response: %v", err)
		return body, "invalid", 0
	}
	return out, "rewritten", count
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// CacheHeaders returns middleware that sets the given headers on every
// response before calling next.
func CacheHeaders(headers http.Header) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header()[k] = append([]string(nil), v...)
			}
			next.ServeHTTP(w, r)
		})
	}
}
