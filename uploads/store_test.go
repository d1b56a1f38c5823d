package uploads

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test_uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	rec := Record{
		Key:         "uploads/a.png",
		URL:         "https://cdn.example.test/uploads/a.png",
		Filename:    "a.png",
		Provider:    "r2",
		ContentType: "image/png",
		Size:        42,
		Status:      StatusStored,
	}
	require.NoError(t, s.Put(rec))

	got, err := s.Get("uploads/a.png")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.URL, got.URL)
	assert.Equal(t, int64(42), got.Size)
	assert.False(t, got.Timestamp.IsZero())

	missing, err := s.Get("uploads/none.png")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPutRequiresKey(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Put(Record{Status: StatusFailed}))
}

func TestListAndDelete(t *testing.T) {
	s := openTestStore(t)

	empty, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, key := range []string{"uploads/b.png", "uploads/a.png"} {
		require.NoError(t, s.Put(Record{Key: key, Status: StatusStored}))
	}
	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "uploads/a.png", records[0].Key)

	require.NoError(t, s.Delete("uploads/a.png"))
	records, err = s.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCleanupOlderThan(t *testing.T) {
	s := openTestStore(t)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.Put(Record{Key: "old-1", Timestamp: old}))
	require.NoError(t, s.Put(Record{Key: "old-2", Timestamp: old}))
	require.NoError(t, s.Put(Record{Key: "recent", Timestamp: time.Now().Add(-time.Hour)}))

	removed, err := s.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "recent", records[0].Key)
}

func TestCheckHealth(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.CheckHealth())

	var nilStore *Store
	assert.Error(t, nilStore.CheckHealth())
}
