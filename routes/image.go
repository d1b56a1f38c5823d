package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"mediaedge/cdn"
	"mediaedge/logger"
	"mediaedge/metrics"
)

// ImageResponse is returned by the image resolver.
type ImageResponse struct {
	Src    string `json:"src"`
	URL    string `json:"url"`
	Rule   string `json:"rule"`
	UseCDN bool   `json:"use_cdn"`
}

// ImageHandler resolves a media reference into the URL a client should
// fetch. Query parameters:
//
//	src       media reference (required)
//	w h q f   resize options; blur for blur radius
//	preset    named resize preset, overridden by explicit options
//	cdn=0|1   force the CMS origin or the CDN; by default own media uses
//	          the CDN when one is configured
//	redirect=1 respond with a redirect instead of JSON
func (s *Server) ImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	src := q.Get("src")

	opts, err := resizeOptions(q)
	if err != nil {
		logger.Warnf("Invalid image request for %q: %v", src, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if q.Get("w") != "" && !s.Images.AllowsWidth(opts.Width) {
		logger.Warnf("Image width not allowed: %d", opts.Width)
		http.Error(w, "Width not allowed", http.StatusBadRequest)
		return
	}
	if !s.Images.AllowsFormat(opts.Format) {
		logger.Warnf("Image format not allowed: %s", opts.Format)
		http.Error(w, "Format not allowed", http.StatusBadRequest)
		return
	}
	if !s.Images.AllowsURL(src) {
		logger.Warnf("Image not allowed: %s", src)
		http.Error(w, "Image not allowed", http.StatusBadRequest)
		return
	}

	useCDN := s.Rewriter.ShouldUseCDN(src)
	if q.Get("cdn") == "1" {
		useCDN = src != ""
	}

	var resolved string
	var rule cdn.Rule
	if q.Get("cdn") == "0" {
		useCDN = false
		rule = cdn.RuleEmpty
		if src != "" {
			resolved, rule = s.Rewriter.OriginURL(src, r.Host), cdn.RuleOrigin
		}
	} else {
		resolved, rule = s.Rewriter.Optimize(src, opts, useCDN)
	}
	metrics.RecordRewrite(string(rule))

	if resolved == "" {
		http.Error(w, "No image", http.StatusNotFound)
		return
	}

	if q.Get("redirect") == "1" {
		w.Header().Set("Cache-Control", s.Images.ResolveCacheControl())
		http.Redirect(w, r, resolved, http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, ImageResponse{
		Src:    src,
		URL:    resolved,
		Rule:   string(rule),
		UseCDN: useCDN,
	})
}

// resizeOptions reads the preset and explicit resize parameters.
func resizeOptions(q url.Values) (cdn.ResizeOptions, error) {
	var opts cdn.ResizeOptions
	if name := q.Get("preset"); name != "" {
		preset, ok := cdn.Preset(name)
		if !ok {
			return opts, fmt.Errorf("unknown preset %q", name)
		}
		opts = preset
	}

	for _, p := range []struct {
		key string
		dst *int
	}{
		{"w", &opts.Width},
		{"h", &opts.Height},
		{"blur", &opts.Blur},
	} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid %s: %q", p.key, v)
		}
		*p.dst = n
	}

	if v := q.Get("q"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return opts, fmt.Errorf("invalid q: %q", v)
		}
		opts.Quality = cdn.Quality(n)
	}

	if f := q.Get("f"); f != "" {
		if !cdn.ValidFormat(f) {
			return opts, fmt.Errorf("invalid format %q", f)
		}
		opts.Format = f
	}
	return opts, nil
}
