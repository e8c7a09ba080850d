package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pevans/seqbook/anchors"
	"github.com/pevans/seqbook/assemble"
	"github.com/pevans/seqbook/cache"
	"github.com/pevans/seqbook/config"
	"github.com/pevans/seqbook/extract"
	"github.com/pevans/seqbook/logger"
	"github.com/pevans/seqbook/normalize"
	"github.com/pevans/seqbook/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	fooURL = "http://lesswrong.com/lw/ab/foo/"
	barURL = "http://lesswrong.com/lw/cd/bar/"
)

type mapFetcher map[string][]byte

func (m mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	raw, ok := m[url]
	if !ok {
		return nil, &cache.FetchError{URL: url, Err: errors.New("not found")}
	}
	return raw, nil
}

// Test helper: RSS rendition of one article
func feedSource(title, link, body string) []byte {
	return []byte(fmt.Sprintf(`<rss version="2.0"><channel><title>LW</title>
<item><title>%s</title><link>%s</link><description>%s</description></item>
</channel></rss>`, html.EscapeString(title), link, html.EscapeString(body)))
}

// Test helper: assemble a two-article book where bar is skipped
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	manifest := []config.SequenceNode{{Title: "S1", Articles: []string{fooURL, barURL}}}
	fixes := map[string][]config.ContentFix{barURL: {{Type: config.FixSkip}}}
	store, err := config.NewStore(manifest, fixes, map[string]string{})
	require.NoError(t, err)

	table, err := anchors.Assign(store.Manifest(), anchors.Options{})
	require.NoError(t, err)
	nctx, err := normalize.NewContext(config.DefaultOrigin, config.DefaultArticlePattern, table, store.Redirects())
	require.NoError(t, err)
	normalizer, err := normalize.NewNormalizer(nctx)
	require.NoError(t, err)

	fetcher := mapFetcher{fooURL: feedSource("Foo's post", fooURL, "<div><p>Hello</p></div>")}
	asm := assemble.New(store, table, extract.NewExtractor(extract.DefaultSelectors()), normalizer, fetcher, logger.NewNop())
	doc, err := asm.Assemble(context.Background())
	require.NoError(t, err)

	server, err := NewServer(doc, table, render.Options{RunID: "run-1"}, logger.NewNop())
	require.NoError(t, err)
	return server.SetupRouter()
}

func TestHandleBook(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `id="lesswrong-com-lw-ab-foo"`)
	assert.Contains(t, w.Body.String(), `href="/screen.css"`)
}

func TestHandleStylesheet(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{"/screen.css", "/print.css"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/css", path)
		assert.Contains(t, w.Body.String(), ".spoiler", path)
	}
}

func TestHandleListArticles(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ListArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Articles, 2)

	assert.Equal(t, ArticleEntry{
		ID:       "lesswrong-com-lw-ab-foo",
		URL:      fooURL,
		Title:    "Foo’s post",
		Included: true,
	}, resp.Articles[0])
	assert.Equal(t, ArticleEntry{
		ID:  "lesswrong-com-lw-cd-bar",
		URL: barURL,
	}, resp.Articles[1], "skipped article is listed but not included")
}

func TestHandleGetArticle(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/articles/lesswrong-com-lw-ab-foo", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `<div class="article" id="lesswrong-com-lw-ab-foo">`)
		assert.Contains(t, w.Body.String(), "<p>Hello</p>")
	})

	for _, id := range []string{"lesswrong-com-lw-cd-bar", "nope"} {
		t.Run("not found "+id, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/articles/"+id, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.Equal(t, "not_found", errResp.Error.Code)
			assert.Contains(t, errResp.Error.Message, id)
		})
	}
}
