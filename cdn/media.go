package cdn

import (
	"strings"
)

// Media resolves a CMS media field for rendering. Absolute and data URLs are
// used as they are; everything else goes through Rewrite.
func (r *Rewriter) Media(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if strings.HasPrefix(ref, "data:") || isAbsolute(ref) {
		return ref, true
	}
	return r.Rewrite(ref)
}

// Optimize rewrites ref onto the CDN and, when useCDN is set and resize
// options are given, appends the resize parameters. It reports the rule
// that resolved ref; RuleEmpty means there is nothing to render.
func (r *Rewriter) Optimize(ref string, opts ResizeOptions, useCDN bool) (string, Rule) {
	out, rule := r.Decide(ref)
	if rule == RuleEmpty {
		return "", rule
	}
	if useCDN && !opts.IsZero() {
		out = WithResize(out, opts)
	}
	return out, rule
}

// OriginURL points ref at the CMS origin rather than the CDN. requestHost is
// the host the page was served from; when no API base is configured and the
// page runs on a staging host, the matching api- host is used.
func (r *Rewriter) OriginURL(ref, requestHost string) string {
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return ref
	}
	if r.cfg.APIBase == "" && r.cfg.StagingSuffix != "" && strings.HasSuffix(requestHost, r.cfg.StagingSuffix) {
		return "https://" + strings.Replace(requestHost, "client-", "api-", 1) + ref
	}
	return r.cfg.APIBaseOrDefault() + ref
}
