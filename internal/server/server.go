package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/atikulmunna/logdeck/internal/aggregator"
	"github.com/atikulmunna/logdeck/internal/merger"
	"github.com/atikulmunna/logdeck/internal/tailer"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// FolderStore persists the configured scan folders.
type FolderStore interface {
	List() ([]string, error)
	Replace(folders []string) error
	Add(folder string) error
	Remove(folder string) error
}

// Options configures a Server.
type Options struct {
	Addr         string
	Tail         tailer.Options
	MaxReadBytes int64
	Folders      FolderStore
}

// Server holds the Gin engine and dependencies for the HTTP API.
type Server struct {
	engine     *gin.Engine
	aggregator *aggregator.Aggregator
	merger     *merger.Merger
	folders    FolderStore
	tailOpts   tailer.Options
	addr       string
}

// New creates the logdeck API server.
func New(agg *aggregator.Aggregator, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		aggregator: agg,
		merger:     merger.New(opts.MaxReadBytes),
		folders:    opts.Folders,
		tailOpts:   opts.Tail,
		addr:       opts.Addr,
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.POST("/scan", s.handleScan)
	api.GET("/scan", s.handleScanStored)
	api.GET("/browse", s.handleBrowse)
	api.GET("/read", s.handleRead)
	api.POST("/read-multi", s.handleReadMulti)
	api.GET("/highlight", s.handleHighlight)
	api.GET("/folders", s.handleGetFolders)
	api.PUT("/folders", s.handlePutFolders)
	api.POST("/folders", s.handleAddFolder)
	api.DELETE("/folders", s.handleRemoveFolder)

	// Metrics API.
	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"uptime":          stats.Uptime,
			"active_sessions": stats.ActiveSessions,
			"lps":             stats.LPS,
			"dropped_batches": stats.DroppedBatches,
		})
	})

	// Session channel.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", s.addr).Msg("http server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
