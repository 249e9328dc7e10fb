package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/logger"
)

// Analyzer runs structured transcript analysis against a Provider.
type Analyzer struct {
	provider Provider
	log      *logger.Logger
}

// NewAnalyzer creates an Analyzer backed by the given provider.
func NewAnalyzer(provider Provider, log *logger.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		log:      log.WithComponent("analyzer"),
	}
}

// Analyze sends the transcript to the model and returns exactly one finding
// per requested item, in request order. An empty item list means the default
// set; a non-empty list replaces the defaults entirely.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.TextContent) == "" {
		return nil, errors.MissingField("text_content")
	}
	if req.Mode == "" {
		req.Mode = ModePhase1
	}
	if !req.Mode.Valid() {
		return nil, errors.InvalidInput("mode", fmt.Sprintf("unknown analysis mode %q", req.Mode))
	}

	items := req.Items
	if len(items) == 0 {
		items = defaultItemsCopy()
	}

	system := BuildSystemPrompt(req.Mode, items)
	reply, err := a.provider.Complete(ctx, system, req.TextContent)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, errors.AnalysisProviderError(a.provider.Name(), err)
	}

	result, err := parseReply(a.provider.Name(), reply, items)
	if err != nil {
		a.log.Warn("Discarding malformed model reply", logger.Fields(
			logger.FieldProvider, a.provider.Name(),
			"reply_length", len(reply),
		))
		return nil, err
	}

	a.log.Info("Analysis completed", logger.Fields(
		logger.FieldProvider, a.provider.Name(),
		"mode", string(req.Mode),
		"items", len(items),
	))
	return result, nil
}

// parseReply extracts the JSON object from the model reply and checks it
// covers every requested item. Extra keys are dropped; a missing item is a
// hard error.
func parseReply(providerName, reply string, items []string) (*Result, error) {
	var raw Result
	if err := json.Unmarshal([]byte(extractJSON(reply)), &raw); err != nil {
		return nil, errors.MalformedProviderReply(providerName, "reply is not a JSON object of strings")
	}

	result := NewResult(len(items))
	for _, item := range items {
		finding, ok := raw.Get(item)
		if !ok {
			return nil, errors.MalformedProviderReply(providerName,
				fmt.Sprintf("reply missing finding for %q", item))
		}
		result.Add(item, finding)
	}
	return result, nil
}

// extractJSON pulls a JSON object from model output that may be wrapped in
// markdown fences or surrounding prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s[3:], "\n"); idx >= 0 {
			s = s[3+idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
