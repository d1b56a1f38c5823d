package config

import "time"

// Images mirrors the frontend image pipeline settings so the edge validates
// requests the same way the storefront does.
type Images struct {
	RemoteHosts           []string
	Formats               []string
	DeviceSizes           []int
	ImageSizes            []int
	MinimumCacheTTL       time.Duration
	AllowSVG              bool
	ContentSecurityPolicy string
}

// LoadImages returns the image settings; IMAGE_HOSTNAME and CDN_HOSTNAME
// override the first two remote hosts.
func LoadImages() Images {
	return Images{
		RemoteHosts: []string{
			getEnv("IMAGE_HOSTNAME", "localhost"),
			getEnv("CDN_HOSTNAME", ProductionCDNDomain),
			"images.theimpresion.com",
			"impresion.com",
		},
		Formats:               []string{"image/avif", "image/webp"},
		DeviceSizes:           []int{640, 750, 828, 1080, 1200, 1920, 2048, 3840},
		ImageSizes:            []int{16, 32, 48, 64, 96, 128, 256, 384},
		MinimumCacheTTL:       30 * 24 * time.Hour,
		AllowSVG:              true,
		ContentSecurityPolicy: "default-src 'self'; script-src 'none'; sandbox;",
	}
}
