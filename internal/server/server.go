// Copyright 2025 MindSweep AI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the MindSweep HTTP surface and orchestrates the
// per-request pipeline: detect language, compose prompt, complete, persist.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/mindsweep/internal/completion"
	"github.com/your-org/mindsweep/internal/config"
	"github.com/your-org/mindsweep/internal/health"
	"github.com/your-org/mindsweep/internal/history"
	"github.com/your-org/mindsweep/internal/language"
	"github.com/your-org/mindsweep/internal/prompt"
	"go.uber.org/zap"
)

// Completer is the slice of the completion client the handler needs.
type Completer interface {
	Complete(ctx context.Context, promptText string) (*completion.Result, error)
	Probe(ctx context.Context) completion.ProbeResult
}

// MindsweepRequest is the inbound message payload. The message may be empty;
// no validation beyond type is applied.
type MindsweepRequest struct {
	Message string `json:"message"`
}

// MindsweepResponse is the outbound payload for POST /mindsweep. Expected
// failure modes ride inside the body under an HTTP success status.
type MindsweepResponse struct {
	Clarity   string `json:"clarity,omitempty"`
	ModelUsed string `json:"model_used,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HistoryItem is one record on the read path, timestamp serialized.
type HistoryItem struct {
	Message   string `json:"message"`
	Clarity   string `json:"clarity"`
	ModelUsed string `json:"model_used,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Server wires the pipeline components behind the HTTP surface.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	detector  *language.Detector
	picker    *prompt.Picker
	completer Completer
	store     history.Storage
	health    *health.Manager
}

// New creates a Server from explicitly constructed collaborators.
func New(cfg *config.Config, completer Completer, store history.Storage, healthManager *health.Manager, picker *prompt.Picker, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		detector:  language.NewDetector(),
		picker:    picker,
		completer: completer,
		store:     store,
		health:    healthManager,
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(s.corsMiddleware())
	router.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		s.logger.Error("Unhandled panic in request pipeline", zap.Any("panic", err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
	}))

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/health/ai", s.handleHealthAI)
	router.POST("/mindsweep", s.handleMindsweep)
	router.GET("/history", s.handleHistory)

	return router
}

// Run starts the HTTP server on the configured port.
func (s *Server) Run() error {
	s.logger.Info("Starting MindSweep server",
		zap.String("port", s.cfg.Server.Port),
		zap.String("project", s.cfg.Project.ID),
		zap.String("region", s.cfg.Project.Region),
	)
	return s.Router().Run(":" + s.cfg.Server.Port)
}

// corsMiddleware permits all origins, methods, and headers. Demo posture,
// not a security boundary.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// handleRoot returns the service descriptor.
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "MindSweep AI backend",
		"status":  "ok",
		"project": s.cfg.Project.ID,
		"region":  s.cfg.Project.Region,
		"endpoints": []string{
			"/mindsweep (POST)",
			"/history (GET)",
			"/health (GET)",
			"/health/ai (GET)",
		},
	})
}

// handleHealth reports service health including the history store.
func (s *Server) handleHealth(c *gin.Context) {
	resp := s.health.Check(c.Request.Context())

	statusCode := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, resp)
}

// handleHealthAI probes the completion client with a trivial prompt.
func (s *Server) handleHealthAI(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeoutDuration())
	defer cancel()

	start := time.Now()
	probe := s.completer.Probe(ctx)

	c.JSON(http.StatusOK, gin.H{
		"ai_status":  probe.Status,
		"model":      probe.Model,
		"latency_ms": time.Since(start).Milliseconds(),
	})
}

// handleMindsweep runs the full pipeline for one message. Completion and
// persistence failures are reported inside the body under HTTP 200; a
// successful completion is never retracted because the store write failed.
func (s *Server) handleMindsweep(c *gin.Context) {
	var req MindsweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MindsweepResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeoutDuration())
	defer cancel()

	label := s.detector.Detect(req.Message)
	promptText := prompt.Compose(label, req.Message, s.picker.Phrase())

	s.logger.Debug("Processing mindsweep request",
		zap.String("language", string(label)),
		zap.Int("message_length", len(req.Message)),
	)

	result, err := s.completer.Complete(ctx, promptText)
	if err != nil {
		s.logger.Error("Completion failed for both models", zap.Error(err))
		c.JSON(http.StatusOK, MindsweepResponse{Error: "model error: " + err.Error()})
		return
	}

	rec := history.Record{
		Message:   req.Message,
		Clarity:   result.Text,
		ModelUsed: result.Model,
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.logger.Error("History write failed after successful completion", zap.Error(err))
		c.JSON(http.StatusOK, MindsweepResponse{
			Clarity:   result.Text,
			ModelUsed: result.Model,
			Warning:   "response could not be saved to history",
		})
		return
	}

	c.JSON(http.StatusOK, MindsweepResponse{
		Clarity:   result.Text,
		ModelUsed: result.Model,
	})
}

// handleHistory returns the most recent records, newest first. A store read
// failure degrades to an empty list rather than failing the caller.
func (s *Server) handleHistory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeoutDuration())
	defer cancel()

	records, err := s.store.ListRecent(ctx, s.cfg.History.ListLimit)
	if err != nil {
		s.logger.Error("History read failed, returning empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"history": []HistoryItem{}})
		return
	}

	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, HistoryItem{
			Message:   rec.Message,
			Clarity:   rec.Clarity,
			ModelUsed: rec.ModelUsed,
			Timestamp: rec.TimestampISO(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"history": items})
}
