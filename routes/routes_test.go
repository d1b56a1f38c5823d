package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediaedge/auth"
	"mediaedge/cdn"
	"mediaedge/config"
	"mediaedge/storage"
	"mediaedge/uploads"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCDN = "https://cdn.example.test"

var testSecret = []byte("test-upload-secret")

type failingProvider struct{}

func (failingProvider) Name() string { return "broken" }

func (failingProvider) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	return errors.New("bucket unavailable")
}

func newTestServer(t *testing.T, provider storage.Provider) *Server {
	t.Helper()
	store, err := uploads.Open(filepath.Join(t.TempDir(), "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &Server{
		Rewriter: cdn.NewRewriter(config.CDN{
			CDNBase:          testCDN,
			APIBase:          config.DefaultAPIBase,
			ProductionDomain: config.ProductionCDNDomain,
			StagingSuffix:    config.StagingDomainSuffix,
		}),
		Images: cdn.NewImagePolicy(config.Images{
			RemoteHosts: []string{"localhost", "cdn.example.test", config.ProductionCDNDomain},
			Formats:     []string{"image/webp"},
			DeviceSizes: []int{640, 1080},
			ImageSizes:  []int{64, 128},
		}),
		Store:    store,
		Provider: provider,
		Verify:   auth.VerifyConfig{SecretKey: testSecret},
	}
}

func bearer(t *testing.T, folder string) string {
	t.Helper()
	now := time.Now().Unix()
	token, err := auth.Sign(&auth.UploadClaims{
		Subject:   "editor",
		IssuedAt:  now,
		ExpiresAt: now + 300,
		Folder:    folder,
	}, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, storage.NewLocal(t.TempDir()))

	rec := httptest.NewRecorder()
	s.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Store)

	rec = httptest.NewRecorder()
	s.HealthHandler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dev", resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
}

func getImage(s *Server, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ImageHandler(rec, httptest.NewRequest(http.MethodGet, "/image?"+query, nil))
	return rec
}

func TestImageHandler(t *testing.T) {
	s := newTestServer(t, storage.NewLocal(t.TempDir()))

	tests := []struct {
		name   string
		query  string
		url    string
		rule   cdn.Rule
		useCDN bool
	}{
		{"root path", "src=/uploads/a.png", testCDN + "/uploads/a.png", cdn.RuleRootPath, true},
		{"relative", "src=uploads/a.png", testCDN + "/uploads/a.png", cdn.RuleRelative, false},
		{"relative not resized", "src=uploads/a.png&w=640", testCDN + "/uploads/a.png", cdn.RuleRelative, false},
		{"relative forced onto cdn", "src=uploads/a.png&w=640&cdn=1", testCDN + "/uploads/a.png?w=640&q=80&f=auto", cdn.RuleRelative, true},
		{"already on cdn", "src=" + testCDN + "/uploads/a.png", testCDN + "/uploads/a.png", cdn.RuleAlreadyCDN, false},
		{"own absolute", "src=http://localhost:1337/uploads/a.png&w=640", "http://localhost:1337/uploads/a.png?w=640&q=80&f=auto", cdn.RuleFallthrough, true},
		{"resized", "src=/uploads/a.png&w=640&f=webp", testCDN + "/uploads/a.png?w=640&q=80&f=webp", cdn.RuleRootPath, true},
		{"zero quality", "src=/a.png&q=0", testCDN + "/a.png?q=0&f=auto", cdn.RuleRootPath, true},
		{"preset", "src=/a.png&preset=thumbnail", testCDN + "/a.png?w=150&h=150&q=70&f=webp", cdn.RuleRootPath, true},
		{"origin", "src=/uploads/a.png&cdn=0", config.DefaultAPIBase + "/uploads/a.png", cdn.RuleOrigin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getImage(s, tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp ImageResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.url, resp.URL)
			assert.Equal(t, string(tt.rule), resp.Rule)
			assert.Equal(t, tt.useCDN, resp.UseCDN)
		})
	}
}

func TestImageHandlerRejects(t *testing.T) {
	s := newTestServer(t, storage.NewLocal(t.TempDir()))

	assert.Equal(t, http.StatusNotFound, getImage(s, "").Code)
	assert.Equal(t, http.StatusBadRequest, getImage(s, "src=/a.png&w=641").Code)
	assert.Equal(t, http.StatusBadRequest, getImage(s, "src=/a.png&q=101").Code)
	assert.Equal(t, http.StatusBadRequest, getImage(s, "src=/a.png&f=gif").Code)
	assert.Equal(t, http.StatusBadRequest, getImage(s, "src=/a.png&preset=banner").Code)
	assert.Equal(t, http.StatusBadRequest, getImage(s, "src=https://evil.example.com/a.png").Code)
	assert.Equal(t, http.StatusBadRequest, getImage(s, "src=/a.png&f=avif").Code)
	assert.Equal(t, http.StatusBadRequest, getImage(s, "src=/logo.svg").Code)
}

func TestImageHandlerRedirect(t *testing.T) {
	s := newTestServer(t, storage.NewLocal(t.TempDir()))

	rec := getImage(s, "src=/uploads/a.png&redirect=1")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testCDN+"/uploads/a.png", rec.Header().Get("Location"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestUploadHandler(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, storage.NewLocal(dir))

	req := uploadRequest(t, "Photo.PNG", "png-bytes")
	req.Header.Set("Authorization", bearer(t, "products"))
	rec := httptest.NewRecorder()
	s.UploadHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Key, "uploads/products/"), resp.Key)
	assert.True(t, strings.HasSuffix(resp.Key, ".png"), resp.Key)
	assert.Equal(t, testCDN+"/"+resp.Key, resp.URL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(resp.Key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	stored, err := s.Store.Get(resp.Key)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uploads.StatusStored, stored.Status)
	assert.Equal(t, "editor", stored.Subject)
	assert.Equal(t, "local", stored.Provider)
}

func TestUploadHandlerRequiresToken(t *testing.T) {
	s := newTestServer(t, storage.NewLocal(t.TempDir()))

	rec := httptest.NewRecorder()
	s.UploadHandler(rec, uploadRequest(t, "a.png", "x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := uploadRequest(t, "a.png", "x")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.UploadHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.UploadHandler(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUploadHandlerRecordsFailure(t *testing.T) {
	s := newTestServer(t, failingProvider{})

	req := uploadRequest(t, "a.png", "x")
	req.Header.Set("Authorization", bearer(t, ""))
	rec := httptest.NewRecorder()
	s.UploadHandler(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	records, err := s.Store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uploads.StatusFailed, records[0].Status)
	assert.Equal(t, "bucket unavailable", records[0].Error)
}

func TestUploadQueryAndList(t *testing.T) {
	s := newTestServer(t, storage.NewLocal(t.TempDir()))
	require.NoError(t, s.Store.Put(uploads.Record{
		Key:    "uploads/a.png",
		URL:    testCDN + "/uploads/a.png",
		Status: uploads.StatusStored,
	}))

	rec := httptest.NewRecorder()
	s.UploadQueryHandler(rec, httptest.NewRequest(http.MethodGet, "/uploads?key=uploads/a.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got uploads.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, testCDN+"/uploads/a.png", got.URL)

	rec = httptest.NewRecorder()
	s.UploadQueryHandler(rec, httptest.NewRequest(http.MethodGet, "/uploads?key=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.UploadQueryHandler(rec, httptest.NewRequest(http.MethodGet, "/uploads", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.UploadListHandler(rec, httptest.NewRequest(http.MethodGet, "/uploads/list", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/uploads/list", nil)
	req.Header.Set("Authorization", bearer(t, ""))
	rec = httptest.NewRecorder()
	s.UploadListHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestObjectKey(t *testing.T) {
	assert.True(t, strings.HasPrefix(objectKey("", "a.png"), "uploads/"))
	assert.True(t, strings.HasPrefix(objectKey("team/logos", "a.png"), "uploads/team/logos/"))
	assert.True(t, strings.HasPrefix(objectKey("../../etc", "a.png"), "uploads/etc/"))
}
