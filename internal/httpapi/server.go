// Package httpapi exposes the turn engine over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/orchestrator"
)

// TurnHandler runs one turn. *orchestrator.Orchestrator satisfies it.
type TurnHandler interface {
	Handle(ctx context.Context, t orchestrator.Turn) (orchestrator.Outcome, error)
}

// TurnRequest is the body of POST /v1/turns.
type TurnRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	UserID    string `json:"user_id"`
	Intent    string `json:"intent"`
	Query     string `json:"query"`
	DataType  string `json:"data_type"`
}

// ErrorResponse is returned for malformed requests and store failures.
// Turns the engine could not answer are still 200 with error_kind set.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// NewRouter builds the gin engine with the turn, health and metrics routes.
func NewRouter(turns TurnHandler, log *logging.Logger) *gin.Engine {
	if log == nil {
		log = logging.Nop()
	}
	h := &handlers{turns: turns, log: log.With("component", "httpapi")}

	router := gin.New()
	router.Use(gin.Recovery(), h.requestLog)
	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/turns", h.turn)
	return router
}

type handlers struct {
	turns TurnHandler
	log   *logging.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *handlers) turn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	out, err := h.turns.Handle(c.Request.Context(), orchestrator.Turn{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Intent:    req.Intent,
		Query:     req.Query,
		DataType:  req.DataType,
	})
	if err != nil {
		h.log.Error("turn failed", "session_id", req.SessionID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "turn could not be processed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debug("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"elapsed", time.Since(start))
}
