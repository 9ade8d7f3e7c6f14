package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/api/middleware"
	"github.com/fsgate/fsgate/internal/shared/types"
)

const version = "0.1.0"

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "fsgate",
		"version": version,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"active_tokens":  s.tokens.Len(),
		"services":       len(s.registry.List(nil)),
	})
}

func (s *Server) handleListServices(c *gin.Context) {
	var category *types.Category
	if q := c.Query("category"); q != "" {
		cat := types.Category(q)
		if cat != types.CategoryFilesystem && cat != types.CategorySystem {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + q})
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": s.registry.List(category),
	})
}

func (s *Server) handleExecute(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := middleware.GetRequestID(c)
	callCtx := &types.Context{ClientID: req.ClientID}
	if requestID != "" {
		callCtx.RequestID = &requestID
	}

	result, err := s.registry.Execute(c.Request.Context(), req.ToolID, req.Params, callCtx)
	if err != nil {
		s.logger.Warn("Tool execution rejected",
			zap.String("tool_id", req.ToolID),
			zap.String("request_id", requestID),
			zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
