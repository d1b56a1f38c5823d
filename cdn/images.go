package cdn

import (
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"mediaedge/config"
)

// Presets are the resize options used for common image slots.
var Presets = map[string]ResizeOptions{
	"thumbnail": {Width: 150, Height: 150, Quality: Quality(70), Format: "webp"},
	"card":      {Width: 400, Height: 300, Quality: Quality(80), Format: "webp"},
	"hero":      {Width: 1920, Height: 1080, Quality: Quality(85), Format: "auto"},
	"product":   {Width: 800, Height: 800, Quality: Quality(85), Format: "webp"},
}

// Preset looks up a named preset.
func Preset(name string) (ResizeOptions, bool) {
	opts, ok := Presets[strings.ToLower(name)]
	if ok && opts.Quality != nil {
		opts.Quality = Quality(*opts.Quality)
	}
	return opts, ok
}

// ImagePolicy validates image requests against the configured remote hosts
// and size breakpoints.
type ImagePolicy struct {
	cfg    config.Images
	hosts  map[string]struct{}
	widths map[int]struct{}
}

// NewImagePolicy indexes cfg for lookups.
func NewImagePolicy(cfg config.Images) *ImagePolicy {
	p := &ImagePolicy{
		cfg:    cfg,
		hosts:  make(map[string]struct{}, len(cfg.RemoteHosts)),
		widths: make(map[int]struct{}, len(cfg.DeviceSizes)+len(cfg.ImageSizes)),
	}
	for _, h := range cfg.RemoteHosts {
		p.hosts[strings.ToLower(h)] = struct{}{}
	}
	for _, w := range cfg.DeviceSizes {
		p.widths[w] = struct{}{}
	}
	for _, w := range cfg.ImageSizes {
		p.widths[w] = struct{}{}
	}
	return p
}

// AllowsHost reports whether images may be loaded from host.
func (p *ImagePolicy) AllowsHost(host string) bool {
	_, ok := p.hosts[strings.ToLower(host)]
	return ok
}

// AllowsWidth reports whether w is one of the device or image sizes.
func (p *ImagePolicy) AllowsWidth(w int) bool {
	_, ok := p.widths[w]
	return ok
}

// AllowsFormat reports whether f may be requested. "auto" lets the CDN
// negotiate and is always allowed; other formats must be configured.
func (p *ImagePolicy) AllowsFormat(f string) bool {
	if f == "" || f == DefaultFormat {
		return true
	}
	for _, mt := range p.cfg.Formats {
		if mt == "image/"+f {
			return true
		}
	}
	return false
}

// AllowsURL reports whether an image may be served from ref. Absolute URLs
// must be on an allowed host and SVGs need AllowSVG.
func (p *ImagePolicy) AllowsURL(ref string) bool {
	if !p.cfg.AllowSVG && isSVG(ref) {
		return false
	}
	if !isAbsolute(ref) {
		return true
	}
	return p.AllowsHost(hostOf(ref))
}

// ContentSecurityPolicy is sent with served images.
func (p *ImagePolicy) ContentSecurityPolicy() string {
	return p.cfg.ContentSecurityPolicy
}

// ServeHeaders are the headers sent with media served by the edge: the CDN
// cache headers plus the content security policy.
func (p *ImagePolicy) ServeHeaders() http.Header {
	h := CacheHeaders()
	if csp := p.ContentSecurityPolicy(); csp != "" {
		h.Set("Content-Security-Policy", csp)
	}
	return h
}

// ResolveCacheControl is the Cache-Control value for resolved image
// redirects, derived from the minimum cache TTL.
func (p *ImagePolicy) ResolveCacheControl() string {
	ttl := int(p.cfg.MinimumCacheTTL.Seconds())
	if ttl <= 0 {
		return "no-cache"
	}
	return "public, max-age=" + strconv.Itoa(ttl)
}

func isSVG(ref string) bool {
	if strings.HasPrefix(ref, "data:") {
		return strings.HasPrefix(ref, "data:image/svg")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".svg")
}

// CacheHeaders returns the headers that let Cloudflare and browsers cache
// media for a year.
func CacheHeaders() http.Header {
	h := make(http.Header)
	h.Set("Cache-Control", "public, max-age=31536000, immutable")
	h.Set("CDN-Cache-Control", "public, max-age=31536000")
	h.Set("Vary", "Accept")
	return h
}
