package redirects

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cmsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/redirections" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := cmsServer(t, http.StatusOK, `{"data":[{"source":"/old","destination":"/new"},{"source":"/a/b","destination":"/c"}]}`)

	rules := NewClient(srv.URL+"/", nil).Fetch(context.Background())
	require.Len(t, rules, 2)
	assert.Equal(t, Rule{Source: "/:locale/old", Destination: "/:locale/new"}, rules[0])
	assert.Equal(t, Rule{Source: "/:locale/a/b", Destination: "/:locale/c"}, rules[1])
}

func TestFetchFallsBackToEmpty(t *testing.T) {
	cases := map[string]*httptest.Server{
		"server error": cmsServer(t, http.StatusInternalServerError, `{}`),
		"bad json":     cmsServer(t, http.StatusOK, `{"data":[`),
		"wrong shape":  cmsServer(t, http.StatusOK, `{"data":"nope"}`),
	}
	for name, srv := range cases {
		t.Run(name, func(t *testing.T) {
			rules := NewClient(srv.URL, nil).Fetch(context.Background())
			assert.NotNil(t, rules)
			assert.Empty(t, rules)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		srv := cmsServer(t, http.StatusOK, `{"data":[]}`)
		url := srv.URL
		srv.Close()
		assert.Empty(t, NewClient(url, nil).Fetch(context.Background()))
	})
}

func TestTableMiddleware(t *testing.T) {
	srv := cmsServer(t, http.StatusOK, `{"data":[{"source":"/old","destination":"/new"}]}`)
	table := NewTable(NewClient(srv.URL, nil))
	table.Refresh(context.Background())
	require.Equal(t, 1, table.Len())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := table.Middleware(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/en/old?ref=nav", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/en/new?ref=nav", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/old", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fr/other", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestTableSkipsCMSPaths(t *testing.T) {
	table := NewTable(NewClient("http://cms.invalid", nil))
	table.Set([]Rule{{Source: "/:locale/articles", Destination: "/:locale/blog"}})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := table.Middleware(next)

	for _, path := range []string{"/api/articles?populate=*", "/admin/articles", "/uploads/articles", "/API/articles"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code, path)
		assert.Empty(t, rec.Header().Get("Location"), path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/de/articles", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/de/blog", rec.Header().Get("Location"))
}

func TestRefreshFailureClearsTable(t *testing.T) {
	srv := cmsServer(t, http.StatusBadGateway, ``)
	table := NewTable(NewClient(srv.URL, nil))
	table.Set([]Rule{{Source: "/:locale/x", Destination: "/:locale/y"}})
	require.Equal(t, 1, table.Len())

	table.Refresh(context.Background())
	assert.Zero(t, table.Len())
}

func TestSplitLocale(t *testing.T) {
	locale, rest, ok := splitLocale("/en/about/team")
	assert.True(t, ok)
	assert.Equal(t, "en", locale)
	assert.Equal(t, "/about/team", rest)

	_, _, ok = splitLocale("/en")
	assert.False(t, ok)
	_, _, ok = splitLocale("//x")
	assert.False(t, ok)
}
