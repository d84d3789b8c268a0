package api

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type Handler struct {
	Trello TrelloRequester
}

// NewRouter serves the MCP server over streamable HTTP at /mcp.
func NewRouter(logger *zap.Logger, server *mcp.Server, h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
	router.Any("/mcp", gin.WrapH(mcpHandler))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", h.HealthCheckHandler)
	}

	return router
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    ServerName,
		"version": ServerVersion,
	})
}
