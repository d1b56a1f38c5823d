// Package redirects loads CMS-managed redirects and applies them to
// locale-prefixed storefront paths.
package redirects

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"mediaedge/logger"
	"mediaedge/metrics"
)

// LocaleParam prefixes every rule so one CMS entry covers all locales.
const LocaleParam = "/:locale"

// CMSSegments are first path segments owned by the CMS. Requests under them
// are API, admin or media traffic and never take storefront redirects.
var CMSSegments = []string{
	"api",
	"admin",
	"uploads",
	"upload",
	"i18n",
	"content-manager",
	"content-type-builder",
	"users-permissions",
	"_health",
}

// Rule is a single redirect.
type Rule struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Permanent   bool   `json:"permanent"`
}

type listResponse struct {
	Data []struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
	} `json:"data"`
}

// Client fetches the redirect list from the CMS.
type Client struct {
	apiBase string
	http    *http.Client
}

// NewClient returns a Client for the CMS at apiBase. A nil httpClient uses a
// client with a 10 second timeout.
func NewClient(apiBase string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), http: httpClient}
}

// Fetch returns the current redirect rules. Any failure is logged and
// yields an empty list so page routing never depends on the CMS being up.
func (c *Client) Fetch(ctx context.Context) []Rule {
	rules, err := c.fetch(ctx)
	if err != nil {
		logger.Warnf("Failed to fetch redirects, continuing without: %v", err)
		metrics.RecordRedirectFetch("error", 0)
		return []Rule{}
	}
	metrics.RecordRedirectFetch("ok", len(rules))
	return rules
}

func (c *Client) fetch(ctx context.Context) ([]Rule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/api/redirections", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request redirections: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode redirections: %w", err)
	}

	rules := make([]Rule, 0, len(body.Data))
	for _, item := range body.Data {
		rules = append(rules, Rule{
			Source:      LocaleParam + item.Source,
			Destination: LocaleParam + item.Destination,
			Permanent:   false,
		})
	}
	return rules, nil
}

// Table is the active rule set, indexed by source path without the locale.
// It is swapped wholesale on refresh and safe for concurrent use.
type Table struct {
	client *Client

	mu    sync.RWMutex
	rules map[string]Rule
}

// NewTable returns an empty table that refreshes from client.
func NewTable(client *Client) *Table {
	return &Table{client: client, rules: map[string]Rule{}}
}

// Refresh replaces the table with the CMS's current rules.
func (t *Table) Refresh(ctx context.Context) {
	t.Set(t.client.Fetch(ctx))
}

// Set replaces the rules.
func (t *Table) Set(rules []Rule) {
	index := make(map[string]Rule, len(rules))
	for _, r := range rules {
		index[strings.TrimPrefix(r.Source, LocaleParam)] = r
	}
	t.mu.Lock()
	t.rules = index
	t.mu.Unlock()
}

// Len returns the number of loaded rules.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rules)
}

// Run refreshes the table every interval until ctx is done.
func (t *Table) Run(ctx context.Context, every time.Duration) {
	logger.Infof("Redirect refresh routine started - will run every %v", every)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Redirect refresh routine stopped due to context cancellation")
			return
		case <-ticker.C:
			t.Refresh(ctx)
			logger.Debugf("Redirect table refreshed: %d rules", t.Len())
		}
	}
}

// Lookup resolves a request path of the form /{locale}{source} to its
// destination.
func (t *Table) Lookup(path string) (string, Rule, bool) {
	locale, rest, ok := splitLocale(path)
	if !ok || isCMSSegment(locale) {
		return "", Rule{}, false
	}
	t.mu.RLock()
	rule, found := t.rules[rest]
	t.mu.RUnlock()
	if !found {
		return "", Rule{}, false
	}
	dest := "/" + locale + strings.TrimPrefix(rule.Destination, LocaleParam)
	return dest, rule, true
}

// Middleware redirects matching requests and passes the rest to next.
func (t *Table) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dest, rule, ok := t.Lookup(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.RawQuery != "" {
			dest += "?" + r.URL.RawQuery
		}
		status := http.StatusTemporaryRedirect
		if rule.Permanent {
			status = http.StatusPermanentRedirect
		}
		logger.Debugf("Redirecting %s to %s", r.URL.Path, dest)
		http.Redirect(w, r, dest, status)
	})
}

func isCMSSegment(segment string) bool {
	for _, s := range CMSSegments {
		if strings.EqualFold(segment, s) {
			return true
		}
	}
	return false
}

// splitLocale splits "/en/about" into "en" and "/about".
func splitLocale(path string) (string, string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	locale, rest, found := strings.Cut(trimmed, "/")
	if !found || locale == "" {
		return "", "", false
	}
	return locale, "/" + rest, true
}
