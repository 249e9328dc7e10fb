package api

import (
	"github.com/gin-gonic/gin"

	"github.com/bomatic/bomatic-server/internal/analysis"
	apperrors "github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/validation"
)

// AnalysisHandler serves the transcript analysis endpoint.
type AnalysisHandler struct {
	analyzer *analysis.Analyzer
}

// NewAnalysisHandler creates the analysis handler.
func NewAnalysisHandler(analyzer *analysis.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// Analyze runs a structured analysis of the posted text.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), analysis.Request{
		TextContent: req.TextContent,
		Items:       req.CustomItems,
		Mode:        analysis.Mode(req.AnalysisType),
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, AnalyzeResponse{Results: result})
}
