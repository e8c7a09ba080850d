package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test cache store
func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err, "should create cache store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutGet(t *testing.T) {
	store := createTestStore(t)
	fetchedAt := time.Date(2013, 3, 1, 12, 0, 0, 0, time.UTC)
	lastModified := time.Date(2012, 11, 5, 8, 30, 0, 0, time.UTC)

	err := store.Put(Page{
		URL:          "http://lesswrong.com/lw/ab/foo/",
		Body:         []byte("<rss/>"),
		FetchedAt:    fetchedAt,
		LastModified: &lastModified,
	})
	require.NoError(t, err)

	page, err := store.Get("http://lesswrong.com/lw/ab/foo/")
	require.NoError(t, err)
	assert.Equal(t, []byte("<rss/>"), page.Body)
	assert.True(t, fetchedAt.Equal(page.FetchedAt))
	require.NotNil(t, page.LastModified)
	assert.True(t, lastModified.Equal(*page.LastModified))
}

func TestStore_GetMissing(t *testing.T) {
	store := createTestStore(t)

	page, err := store.Get("http://nowhere/")
	assert.Nil(t, page)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestStore_PutReplaces(t *testing.T) {
	store := createTestStore(t)
	url := "http://lesswrong.com/lw/ab/foo/"

	require.NoError(t, store.Put(Page{URL: url, Body: []byte("old"), FetchedAt: time.Now()}))
	require.NoError(t, store.Put(Page{URL: url, Body: []byte("new"), FetchedAt: time.Now()}))

	page, err := store.Get(url)
	require.NoError(t, err)
	assert.Equal(t, "new", string(page.Body))
	assert.Nil(t, page.LastModified)
}

func TestStore_ListAndDelete(t *testing.T) {
	store := createTestStore(t)
	now := time.Now()

	require.NoError(t, store.Put(Page{URL: "http://b/", Body: []byte("b"), FetchedAt: now}))
	require.NoError(t, store.Put(Page{URL: "http://a/", Body: []byte("a"), FetchedAt: now}))

	pages, err := store.List()
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "http://a/", pages[0].URL)
	assert.Nil(t, pages[0].Body, "list does not load bodies")

	require.NoError(t, store.Delete("http://a/"))
	assert.ErrorIs(t, store.Delete("http://a/"), ErrPageNotFound)

	pages, err = store.List()
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
