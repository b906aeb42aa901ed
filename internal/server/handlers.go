package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atikulmunna/logdeck/internal/grouper"
	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/atikulmunna/logdeck/internal/parser"
	"github.com/atikulmunna/logdeck/internal/search"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type foldersRequest struct {
	Folders []string `json:"folders"`
}

type folderRequest struct {
	Folder string `json:"folder"`
}

type readMultiRequest struct {
	Paths  []string   `json:"paths"`
	Levels []string   `json:"levels"`
	Query  string     `json:"query"`
	From   *time.Time `json:"from"`
	To     *time.Time `json:"to"`
}

// writeError maps err onto the error taxonomy and writes it as JSON.
func writeError(c *gin.Context, err error) {
	kind := model.ErrorKind(err)
	status := http.StatusInternalServerError
	switch kind {
	case "InvalidInput", "InvalidPath":
		status = http.StatusBadRequest
	case "NotFound":
		status = http.StatusNotFound
	default:
		kind = "Internal"
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": err.Error()})
}

func (s *Server) handleScan(c *gin.Context) {
	var req foldersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("scan: %v: %w", err, model.ErrInvalidInput))
		return
	}
	s.scan(c, req.Folders)
}

func (s *Server) handleScanStored(c *gin.Context) {
	folders, err := s.folders.List()
	if err != nil {
		writeError(c, err)
		return
	}
	s.scan(c, folders)
}

func (s *Server) scan(c *gin.Context, folders []string) {
	groups, err := grouper.Scan(c.Request.Context(), folders)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"groups":      groups,
		"totalFiles":  grouper.CountFiles(groups),
		"totalGroups": len(groups),
	})
}

func (s *Server) handleBrowse(c *gin.Context) {
	res, err := grouper.Browse(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleRead(c *gin.Context) {
	var offset int64
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(c, fmt.Errorf("read: offset %q: %w", raw, model.ErrInvalidInput))
			return
		}
		offset = v
	}

	res, err := s.merger.Read(c.Query("path"), offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleReadMulti(c *gin.Context) {
	var req readMultiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("read-multi: %v: %w", err, model.ErrInvalidInput))
		return
	}
	if len(req.Paths) == 0 {
		writeError(c, fmt.Errorf("read-multi: no paths: %w", model.ErrInvalidInput))
		return
	}

	merged := s.merger.Merge(req.Paths)
	filter := search.Filter{
		Levels:  search.ParseLevels(req.Levels...),
		Matcher: search.BuildMatcher(req.Query),
	}
	if req.From != nil {
		filter.From = *req.From
	}
	if req.To != nil {
		filter.To = *req.To
	}
	lines := filter.Apply(parser.ClassifyLines(merged.Lines))

	c.JSON(http.StatusOK, gin.H{
		"lines":       lines,
		"totalSize":   merged.TotalSize,
		"fileCount":   len(merged.FileMarkers),
		"fileMarkers": merged.FileMarkers,
		"fileName":    filepath.Base(req.Paths[0]),
		"digest":      merged.Digest,
	})
}

func (s *Server) handleHighlight(c *gin.Context) {
	spans := search.BuildMatcher(c.Query("query")).Highlight(c.Query("line"))
	if spans == nil {
		spans = []search.Span{}
	}
	c.JSON(http.StatusOK, gin.H{"spans": spans})
}

func (s *Server) handleGetFolders(c *gin.Context) {
	folders, err := s.folders.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (s *Server) handlePutFolders(c *gin.Context) {
	var req foldersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("folders: %v: %w", err, model.ErrInvalidInput))
		return
	}
	if err := s.folders.Replace(req.Folders); err != nil {
		writeError(c, err)
		return
	}
	s.handleGetFolders(c)
}

func (s *Server) handleAddFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("folders: %v: %w", err, model.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.Folder) == "" {
		writeError(c, fmt.Errorf("folders: empty folder: %w", model.ErrInvalidInput))
		return
	}
	if err := s.folders.Add(req.Folder); err != nil {
		writeError(c, err)
		return
	}
	s.handleGetFolders(c)
}

func (s *Server) handleRemoveFolder(c *gin.Context) {
	folder := c.Query("path")
	if folder == "" {
		writeError(c, fmt.Errorf("folders: missing path: %w", model.ErrInvalidInput))
		return
	}
	if err := s.folders.Remove(folder); err != nil {
		writeError(c, err)
		return
	}
	s.handleGetFolders(c)
}
