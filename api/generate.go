package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/namnv2496/gameforge/internal/journal"
	"github.com/namnv2496/gameforge/internal/pipeline"
)

const maxPromptChars = 8192

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	RunID string `json:"runId"`
}

func (s *Server) generateHandler(ctx *gin.Context) {
	var req generateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if len(req.Prompt) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if len(req.Prompt) > maxPromptChars {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "prompt exceeds 8192 character limit"})
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		ctx.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}

	runID := pipeline.NewRunID()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		report, err := s.runner.Run(s.baseCtx, runID, req.Prompt)
		if err != nil {
			slog.Warn("Run failed", "run_id", runID, "error", err)
			return
		}
		slog.Info("Run finished", "run_id", runID, "outcome", report.Outcome)
	}()
	ctx.JSON(http.StatusAccepted, generateResponse{RunID: runID})
}

func (s *Server) listRunsHandler(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	runs, err := s.runs.ListRuns(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, runs)
}

func (s *Server) getRunHandler(ctx *gin.Context) {
	run, err := s.runs.GetRun(ctx.Request.Context(), ctx.Param("id"))
	if errors.Is(err, journal.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, run)
}
