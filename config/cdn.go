package config

import "os"

const (
	// ProductionCDNDomain serves media when no CDN base is configured.
	ProductionCDNDomain = "cdn.theimpresion.com"
	// StagingDomainSuffix marks hosted demo instances whose media is still ours.
	StagingDomainSuffix = ".strapidemo.com"
)

// CDN holds the hosts used when rewriting media URLs.
type CDN struct {
	// CDNBase is the configured CDN origin, e.g. "https://cdn.example.com".
	// Empty means no CDN was configured.
	CDNBase string
	// APIBase is the CMS origin serving raw API responses and uploads.
	APIBase          string
	ProductionDomain string
	StagingSuffix    string
}

// LoadCDN reads the CDN hosts from the environment.
// NEXT_PUBLIC_CDN_URL wins over CDN_URL so the frontend and the edge agree.
func LoadCDN() CDN {
	base := os.Getenv("NEXT_PUBLIC_CDN_URL")
	if base == "" {
		base = os.Getenv("CDN_URL")
	}
	return CDN{
		CDNBase:          trimBase(base),
		APIBase:          trimBase(os.Getenv("NEXT_PUBLIC_API_URL")),
		ProductionDomain: ProductionCDNDomain,
		StagingSuffix:    StagingDomainSuffix,
	}
}

// CDNBaseOrDefault returns the configured CDN base or the production CDN.
func (c CDN) CDNBaseOrDefault() string {
	if c.CDNBase != "" {
		return c.CDNBase
	}
	return "https://" + c.ProductionDomain
}

// APIBaseOrDefault returns the configured API base or the local Strapi default.
func (c CDN) APIBaseOrDefault() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return DefaultAPIBase
}
