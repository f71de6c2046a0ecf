package server

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/config"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/logger"
)

// Server exposes the tool execution pipeline over HTTP. Every execute
// response is the run's terminal ExecutionResult; the HTTP status only
// mirrors the error classification.
type Server struct {
	orchestrator *engine.Orchestrator
	cfg          *config.Config
}

// New builds a server around an orchestrator.
func New(orchestrator *engine.Orchestrator, cfg *config.Config) *Server {
	return &Server{orchestrator: orchestrator, cfg: cfg}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(configureCORS())

	router.GET("/health", s.health)
	router.GET("/tools", s.listTools)
	router.POST("/tools/:name/execute", s.execute)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"stage":  s.cfg.Stage,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.orchestrator.ToolNames()})
}

// execute runs one tool invocation. The request context carries the
// configured execution deadline; the attestation poller maps deadline
// expiry to an "attestation pending" result so the caller learns the
// burn hash and can resume.
func (s *Server) execute(c *gin.Context) {
	toolName := c.Param("name")

	var req engine.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.AttestationTimeout)
	defer cancel()

	result := s.orchestrator.Execute(ctx, toolName, &req)
	logger.Info("execution finished",
		zap.String("run_id", result.RunID),
		zap.String("tool", toolName),
		zap.String("status", result.Status))

	c.JSON(statusForResult(result), result)
}

func statusForResult(result *engine.ExecutionResult) int {
	if result.Error == "" {
		return http.StatusOK
	}
	switch result.Kind {
	case engine.KindValidation, engine.KindPolicyViolation:
		return http.StatusBadRequest
	case engine.KindUnauthorized:
		return http.StatusForbidden
	case engine.KindAttestationPending:
		return http.StatusAccepted
	default:
		return http.StatusBadGateway
	}
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		// Split and trim the origins
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}
