package middleware

import (
	"strings"
)

// URLField is the field name whose values are moved onto the CDN.
const URLField = "url"

// RewriteURLs walks n and replaces the apiBase prefix with cdnBase in every
// string field named "url" that starts with apiBase. It returns the number of
// fields changed. Nothing is rewritten when cdnBase is empty.
func RewriteURLs(n *Node, apiBase, cdnBase string) int {
	if n == nil || cdnBase == "" || apiBase == "" {
		return 0
	}
	return rewriteNode(n, apiBase, cdnBase)
}

func rewriteNode(n *Node, apiBase, cdnBase string) int {
	count := 0
	switch n.Kind {
	case Object:
		for _, f := range n.Fields {
			if f.Name == URLField {
				if s, ok := f.Value.AsString(); ok && strings.HasPrefix(s, apiBase) {
					f.Value.Str = cdnBase + strings.TrimPrefix(s, apiBase)
					count++
				}
			}
			count += rewriteNode(f.Value, apiBase, cdnBase)
		}
	case Array:
		for _, item := range n.Items {
			count += rewriteNode(item, apiBase, cdnBase)
		}
	}
	return count
}
