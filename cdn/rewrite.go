// Package cdn decides which URL a client should fetch media from.
package cdn

import (
	"net/url"
	"strings"

	"mediaedge/config"
)

// Rule names the decision that produced a rewrite result.
type Rule string

const (
	RuleEmpty       Rule = "empty"
	RuleDataURI     Rule = "data_uri"
	RuleExternal    Rule = "external"
	RuleAlreadyCDN  Rule = "already_cdn"
	RuleRootPath    Rule = "root_path"
	RuleRelative    Rule = "relative"
	RuleFallthrough Rule = "fallthrough"
	// RuleOrigin marks URLs deliberately pointed at the CMS origin.
	RuleOrigin Rule = "origin"
)

// Rewriter rewrites media references onto the CDN. It holds no mutable state
// and is safe for concurrent use.
type Rewriter struct {
	cfg config.CDN
}

// NewRewriter returns a Rewriter for the given hosts.
func NewRewriter(cfg config.CDN) *Rewriter {
	return &Rewriter{cfg: cfg}
}

// Rewrite returns the URL to fetch ref from. ok is false for empty input,
// meaning there is nothing to render.
func (r *Rewriter) Rewrite(ref string) (string, bool) {
	out, rule := r.Decide(ref)
	return out, rule != RuleEmpty
}

// Decide applies the rewrite rules in order and reports which one matched.
func (r *Rewriter) Decide(ref string) (string, Rule) {
	if ref == "" {
		return "", RuleEmpty
	}
	if strings.HasPrefix(ref, "data:") {
		return ref, RuleDataURI
	}

	if isAbsolute(ref) {
		host := hostOf(ref)
		if !r.isOwnHost(host) {
			return ref, RuleExternal
		}
	}

	if r.onCDN(ref) {
		return ref, RuleAlreadyCDN
	}

	base := r.cfg.CDNBaseOrDefault()
	switch {
	case isAbsolute(ref):
		// localhost or staging URL that the API base rewrite in the
		// response middleware is responsible for
		return ref, RuleFallthrough
	case strings.HasPrefix(ref, "/"):
		return base + ref, RuleRootPath
	default:
		return base + "/" + ref, RuleRelative
	}
}

// ShouldUseCDN reports whether url points at our own media and a CDN base
// has been explicitly configured.
func (r *Rewriter) ShouldUseCDN(u string) bool {
	if u == "" {
		return false
	}
	own := strings.Contains(u, "localhost") ||
		strings.Contains(u, r.cfg.StagingSuffix) ||
		strings.HasPrefix(u, "/")
	return own && r.cfg.CDNBase != ""
}

func (r *Rewriter) isOwnHost(host string) bool {
	if host == "localhost" {
		return true
	}
	return r.cfg.StagingSuffix != "" && strings.HasSuffix(host, r.cfg.StagingSuffix)
}

func (r *Rewriter) onCDN(ref string) bool {
	if r.cfg.CDNBase != "" && strings.HasPrefix(ref, r.cfg.CDNBase) {
		return true
	}
	return isAbsolute(ref) && hostOf(ref) == r.cfg.ProductionDomain
}

// isAbsolute is true for http(s) URLs and protocol-relative "//host" URLs.
func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http") || strings.HasPrefix(ref, "//")
}

// hostOf returns the lower-cased hostname of an absolute reference, or ""
// when it cannot be parsed.
func hostOf(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
