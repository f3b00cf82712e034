// Package server hosts the upload-and-chat HTTP API. The extraction and
// chat cores are single-session by design; this host isolates them behind
// per-session identifiers and serializes access to the shared registries.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatpdf/internal/chat"
	"chatpdf/internal/common"
	"chatpdf/internal/config"
	"chatpdf/internal/export"
	"chatpdf/internal/pdf"
	"chatpdf/internal/store"
)

// Extractor is the document-extraction seam.
type Extractor interface {
	Extract(ctx context.Context, path string) (pdf.Result, error)
}

// liveSession pairs a chat session with the lock that serializes turns on
// it. The session itself is single-caller by design; concurrent requests
// for the same id must queue here.
type liveSession struct {
	mu      sync.Mutex
	session *chat.Session
}

// Server wires the HTTP routes to the store and the live session registry.
type Server struct {
	cfg        config.ServerConfig
	store      *store.Store
	extractor  Extractor
	newSession func() *chat.Session
	logger     *slog.Logger

	mu      sync.RWMutex
	live    map[string]*liveSession
	results map[string]pdf.Result
}

// New builds the server. newSession must return a fresh unseeded chat
// session per call.
func New(cfg config.ServerConfig, st *store.Store, extractor Extractor, newSession func() *chat.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		store:      st,
		extractor:  extractor,
		newSession: newSession,
		logger:     logger,
		live:       make(map[string]*liveSession),
		results:    make(map[string]pdf.Result),
	}
}

// Router assembles the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = s.cfg.MaxUploadMB << 20

	r.GET("/health", s.handleHealth)
	r.POST("/upload", s.handleUpload)
	r.GET("/chat/:id", s.handleGetChat)
	r.POST("/chat/:id", s.handleSendMessage)
	r.GET("/session/:id/report.xlsx", s.handleReport)
	r.DELETE("/session/:id", s.handleDeleteSession)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	n, err := s.store.CountSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "active_sessions": n})
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are allowed"})
		return
	}
	if maxBytes := s.cfg.MaxUploadMB << 20; file.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file size exceeds %dMB limit", s.cfg.MaxUploadMB),
		})
		return
	}

	sessionID := uuid.New().String()
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create upload directory"})
		return
	}
	path := filepath.Join(s.cfg.UploadDir, sessionID+".pdf")
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store upload"})
		return
	}

	result, err := s.extractor.Extract(c.Request.Context(), path)
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error("extraction failed", "session_id", sessionID, "filename", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("error processing PDF: %v", err)})
		return
	}
	documentText := result.Text()

	if err := s.store.CreateSession(store.Session{
		ID:           sessionID,
		Filename:     file.Filename,
		FilePath:     path,
		DocumentText: documentText,
	}); err != nil {
		_ = os.Remove(path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot persist session"})
		return
	}

	session := s.newSession()
	session.Seed(documentText)

	s.mu.Lock()
	s.live[sessionID] = &liveSession{session: session}
	s.results[sessionID] = result
	s.mu.Unlock()

	s.logger.Info("document uploaded",
		"session_id", sessionID,
		"filename", file.Filename,
		"pages", len(result.Pages),
		"chars", len(documentText),
	)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"session_id":   sessionID,
		"filename":     file.Filename,
		"redirect_url": "/chat/" + sessionID,
	})
}

func (s *Server) handleGetChat(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.store.GetSession(id)
	if err != nil {
		s.sessionError(c, err)
		return
	}
	msgs, err := s.store.ListMessages(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, gin.H{"role": m.Role, "content": m.Content})
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"filename":   sess.Filename,
		"messages":   out,
	})
}

func (s *Server) handleSendMessage(c *gin.Context) {
	id := c.Param("id")
	message := strings.TrimSpace(c.PostForm("message"))
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
		return
	}

	ls, err := s.session(id)
	if err != nil {
		s.sessionError(c, err)
		return
	}

	// Turns on one session are strictly ordered; concurrent requests queue.
	ls.mu.Lock()
	answer, err := ls.session.Ask(c.Request.Context(), message)
	ls.mu.Unlock()
	if err != nil {
		s.logger.Error("chat turn failed", "session_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("error generating response: %v", err)})
		return
	}

	if err := s.store.AppendMessage(id, "user", message); err != nil {
		s.logger.Warn("persist user message", "session_id", id, "error", err)
	}
	if err := s.store.AppendMessage(id, "assistant", answer); err != nil {
		s.logger.Warn("persist assistant message", "session_id", id, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "response": answer})
}

func (s *Server) handleReport(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.store.GetSession(id)
	if err != nil {
		s.sessionError(c, err)
		return
	}

	s.mu.RLock()
	result, ok := s.results[id]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "extraction report no longer available"})
		return
	}

	data, err := export.ReportXLSX(sess.Filename, result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="extraction-report.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.store.GetSession(id)
	if err != nil {
		s.sessionError(c, err)
		return
	}

	if err := os.Remove(sess.FilePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove uploaded file", "session_id", id, "error", err)
	}
	if err := s.store.DeleteSession(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	delete(s.live, id)
	delete(s.results, id)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "session cleaned up"})
}

// session returns the in-memory session for id, recreating it from the
// stored document text after a restart. The recreated session loses its
// history window but stays grounded in the document. Rechecks under the
// write lock so racing misses converge on a single live entry.
func (s *Server) session(id string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.live[id]
	s.mu.RUnlock()
	if ok {
		return ls, nil
	}

	row, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ls, ok := s.live[id]; ok {
		return ls, nil
	}
	session := s.newSession()
	session.Seed(row.DocumentText)
	ls = &liveSession{session: session}
	s.live[id] = ls
	return ls, nil
}

func (s *Server) sessionError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// Cleanup removes every session's uploaded file. Called on shutdown.
func (s *Server) Cleanup() {
	sessions, err := s.store.ListSessions()
	if err != nil {
		s.logger.Warn("list sessions for cleanup", "error", err)
		return
	}
	for _, sess := range sessions {
		if err := os.Remove(sess.FilePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove uploaded file", "session_id", sess.ID, "error", err)
		}
	}
}
