// Package preview serves an assembled book over HTTP so it can be read in
// a browser before printing.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/seqbook/anchors"
	"github.com/pevans/seqbook/assemble"
	"github.com/pevans/seqbook/logger"
	"github.com/pevans/seqbook/render"
)

// Server serves one assembled document.
type Server struct {
	doc   *assemble.Document
	table *anchors.Table
	page  []byte
	runID string
	log   logger.Logger
}

// NewServer renders doc once with opts and returns a server for it.
// Stylesheet hrefs in opts are ignored; the embedded ones are served.
func NewServer(doc *assemble.Document, table *anchors.Table, opts render.Options, log logger.Logger) (*Server, error) {
	opts.ScreenCSS = "/" + render.DefaultScreenCSS
	opts.PrintCSS = "/" + render.DefaultPrintCSS

	var buf bytes.Buffer
	runID, err := render.WriteHTML(doc, opts, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}

	return &Server{
		doc:   doc,
		table: table,
		page:  buf.Bytes(),
		runID: runID,
		log:   log,
	}, nil
}

// SetupRouter configures the gin router with the preview routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/", s.HandleBook)
	router.GET("/"+render.DefaultScreenCSS, s.HandleStylesheet(render.DefaultScreenCSS))
	router.GET("/"+render.DefaultPrintCSS, s.HandleStylesheet(render.DefaultPrintCSS))
	router.GET("/articles", s.HandleListArticles)
	router.GET("/articles/:id", s.HandleGetArticle)

	return router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("preview server listening", logger.String("addr", "http://"+addr+"/"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("preview server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)))
	}
}

// ArticleEntry is one row of GET /articles.
type ArticleEntry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	// Included is false for articles left out by a skip fix.
	Included bool `json:"included"`
}

// ListArticlesResponse is the response for GET /articles.
type ListArticlesResponse struct {
	RunID    string         `json:"run_id"`
	Articles []ArticleEntry `json:"articles"`
	Total    int            `json:"total"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleBook handles GET /.
func (s *Server) HandleBook(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.page)
}

// HandleStylesheet serves an embedded stylesheet.
func (s *Server) HandleStylesheet(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		css, err := render.Stylesheet(name)
		if err != nil {
			writeError(c, http.StatusNotFound, "not_found", err.Error())
			return
		}
		c.Data(http.StatusOK, "text/css; charset=utf-8", css)
	}
}

// HandleListArticles handles GET /articles, listing the identifier table
// in reading order.
func (s *Server) HandleListArticles(c *gin.Context) {
	entries := s.table.Entries()
	resp := ListArticlesResponse{
		RunID:    s.runID,
		Articles: make([]ArticleEntry, 0, len(entries)),
		Total:    len(entries),
	}

	for _, e := range entries {
		entry := ArticleEntry{ID: e.ID, URL: e.URL}
		if a, ok := s.doc.Article(e.ID); ok {
			entry.Title = a.Title
			entry.Included = true
		}
		resp.Articles = append(resp.Articles, entry)
	}

	c.JSON(http.StatusOK, resp)
}

// HandleGetArticle handles GET /articles/:id, returning the article's
// markup.
func (s *Server) HandleGetArticle(c *gin.Context) {
	id := c.Param("id")

	article, ok := s.doc.Article(id)
	if !ok {
		writeError(c, http.StatusNotFound, "not_found", "Article with ID "+id+" not found")
		return
	}

	markup, err := article.HTML()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", "Failed to render article: "+err.Error())
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
