package cdn

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultQuality = 80
	DefaultFormat  = "auto"
)

// ResizeOptions are Cloudflare image resizing parameters. Zero widths,
// heights and blurs are unset. A nil Quality and an empty Format fall back to
// their defaults; an explicit quality of 0 is sent as q=0.
type ResizeOptions struct {
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Quality *int   `json:"quality,omitempty"`
	Format  string `json:"format,omitempty"`
	Blur    int    `json:"blur,omitempty"`
}

// Quality returns a pointer for ResizeOptions.Quality.
func Quality(q int) *int {
	return &q
}

// IsZero reports whether no option was set.
func (o ResizeOptions) IsZero() bool {
	return o == ResizeOptions{}
}

// Formats accepted for the f parameter.
var Formats = []string{"webp", "avif", "auto"}

// ValidFormat reports whether f is empty or one of Formats.
func ValidFormat(f string) bool {
	if f == "" {
		return true
	}
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// WithResize appends resize query parameters to imageURL in the order
// w, h, q, f, blur. q and f are always present.
func WithResize(imageURL string, opts ResizeOptions) string {
	quality := DefaultQuality
	if opts.Quality != nil {
		quality = *opts.Quality
	}
	format := opts.Format
	if format == "" {
		format = DefaultFormat
	}

	var params []string
	add := func(k, v string) {
		params = append(params, k+"="+url.QueryEscape(v))
	}
	if opts.Width != 0 {
		add("w", strconv.Itoa(opts.Width))
	}
	if opts.Height != 0 {
		add("h", strconv.Itoa(opts.Height))
	}
	add("q", strconv.Itoa(quality))
	add("f", format)
	if opts.Blur != 0 {
		add("blur", strconv.Itoa(opts.Blur))
	}

	sep := "?"
	if strings.Contains(imageURL, "?") {
		sep = "&"
	}
	return imageURL + sep + strings.Join(params, "&")
}
