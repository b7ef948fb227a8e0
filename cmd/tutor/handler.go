// In file: cmd/tutor/handler.go
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dileep-u-k/tutor-director/internal/agent"
	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/store"
)

// =================================================================================
// Director HTTP Handler
// =================================================================================
// One-shot questions run against a throwaway session. Multi-turn sessions live
// in the registry; requests against the same session are serialized by its
// lease, so a session never has two writers.
// =================================================================================

type DirectorHandler struct {
	director *director
	registry *session.Registry
}

func NewDirectorHandler(d *director, registry *session.Registry) *DirectorHandler {
	return &DirectorHandler{director: d, registry: registry}
}

// Register mounts every route on engine.
func (h *DirectorHandler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.HandleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/query", h.HandleQuery)
		v1.POST("/sessions", h.HandleCreateSession)
		v1.POST("/sessions/:id/query", h.HandleSessionQuery)
		v1.GET("/sessions/:id/history", h.HandleHistory)
		v1.DELETE("/sessions/:id", h.HandleDeleteSession)
		v1.GET("/tools", h.HandleTools)
		v1.GET("/documents", h.HandleDocuments)
		v1.GET("/profiles/:model", h.HandleProfile)
	}
}

func (h *DirectorHandler) HandleQuery(c *gin.Context) {
	var req api.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	sess := session.New(uuid.NewString())
	h.run(c, sess, req.Query, false)
}

func (h *DirectorHandler) HandleCreateSession(c *gin.Context) {
	sess := h.registry.Create()
	log.Infof("🆕 Session %s created", sess.ID())
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID()})
}

func (h *DirectorHandler) HandleSessionQuery(c *gin.Context) {
	var req api.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	sess, release, ok := h.acquire(c)
	if !ok {
		return
	}
	defer release()
	h.run(c, sess, req.Query, true)
}

func (h *DirectorHandler) HandleHistory(c *gin.Context) {
	sess, release, ok := h.acquire(c)
	if !ok {
		return
	}
	turns := sess.Snapshot().Turns()
	release()
	c.JSON(http.StatusOK, api.HistoryResponse{SessionID: sess.ID(), Turns: session.View(turns)})
}

func (h *DirectorHandler) HandleDeleteSession(c *gin.Context) {
	if !h.registry.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrSessionNotFound.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DirectorHandler) HandleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.director.catalog.Definitions()})
}

// HandleDocuments lists the course documents, optionally filtered by ?topic=.
func (h *DirectorHandler) HandleDocuments(c *gin.Context) {
	var docs []store.ResourceDescriptor
	if topics := c.QueryArray("topic"); len(topics) > 0 {
		docs = h.director.metadata.ByTopics(topics)
	} else {
		docs = h.director.metadata.Files()
	}
	if docs == nil {
		docs = []store.ResourceDescriptor{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

func (h *DirectorHandler) HandleProfile(c *gin.Context) {
	if h.director.profiler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "profiling is disabled (no Redis configured)"})
		return
	}
	profile, err := h.director.profiler.GetProfile(c.Request.Context(), c.Param("model"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *DirectorHandler) HandleHealth(c *gin.Context) {
	info := GetBuildInfo()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"version":    info.Version,
		"components": info.Components,
		"model":      h.director.modelID,
		"sessions":   h.registry.Len(),
	})
}

func (h *DirectorHandler) acquire(c *gin.Context) (*session.Session, func(), bool) {
	sess, release, err := h.registry.Acquire(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		}
		return nil, nil, false
	}
	return sess, release, true
}

func (h *DirectorHandler) run(c *gin.Context, sess *session.Session, query string, withID bool) {
	start := time.Now()
	log.Infof("--- New Query (Session: %s, Prompt: '%.30s...') ---", sess.ID(), query)

	out, err := h.director.loop.Run(c.Request.Context(), sess, query)
	resp := api.QueryResponse{
		Answer:         out.Answer,
		State:          string(out.State),
		Iterations:     out.Iterations,
		ToolExecutions: out.ToolExecutions,
		Usage:          out.Usage,
		LatencyMS:      time.Since(start).Milliseconds(),
	}
	if withID {
		resp.SessionID = sess.ID()
	}
	if err != nil {
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrDecisionClient):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}
