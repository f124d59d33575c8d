package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/stepwise/pkg/corpus"
	"github.com/ormasoftchile/stepwise/pkg/fallback"
	"github.com/ormasoftchile/stepwise/pkg/retrieval"
	"github.com/ormasoftchile/stepwise/pkg/runner"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// Service holds the corpus and the live guided sessions. One Service per
// server process; sessions are keyed by the id minted at start time.
type Service struct {
	store *corpus.Store

	mu       sync.Mutex
	sessions map[string]*runner.Session
}

// NewService creates a service over the given corpus.
func NewService(store *corpus.Store) *Service {
	return &Service{
		store:    store,
		sessions: make(map[string]*runner.Session),
	}
}

func (s *Service) session(id string) *runner.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// HandleSearch implements the stepwise/search MCP tool.
func (s *Service) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return errorResult("query argument is required"), nil
	}

	results, lowConfidence := s.store.Search(query, retrieval.Options{})

	type hit struct {
		ID      string   `json:"id"`
		Title   string   `json:"title"`
		Product string   `json:"product,omitempty"`
		Score   int      `json:"score"`
		Matches []string `json:"matches,omitempty"`
	}
	response := struct {
		Results       []hit `json:"results"`
		LowConfidence bool  `json:"low_confidence"`
	}{LowConfidence: lowConfidence, Results: []hit{}}
	for _, r := range results {
		response.Results = append(response.Results, hit{
			ID:      r.Article.ID,
			Title:   r.Article.Title,
			Product: r.Article.Product,
			Score:   r.Score,
			Matches: r.Matches,
		})
	}

	return jsonResult(response), nil
}

// HandleStart implements the stepwise/start MCP tool.
func (s *Service) HandleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	articleID, _ := args["article_id"].(string)
	if articleID == "" {
		return errorResult("article_id argument is required"), nil
	}
	article := s.store.Get(articleID)
	if article == nil {
		return errorResult(fmt.Sprintf("unknown article %q", articleID)), nil
	}

	sess := runner.NewSession(uuid.NewString())
	res := sess.StartArticle(article)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return jsonResult(map[string]any{
		"session_id":  sess.ID,
		"article_id":  article.ID,
		"title":       article.Title,
		"total_steps": res.TotalSteps,
		"step":        res.FirstStep,
		"completed":   res.FirstStep == nil,
	}), nil
}

// HandleContinue implements the stepwise/continue MCP tool.
func (s *Service) HandleContinue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errRes := s.sessionFromArgs(req)
	if errRes != nil {
		return errRes, nil
	}

	res := sess.Continue()
	response := map[string]any{
		"completed": res.Completed,
		"step":      res.NextStep,
	}
	if res.Completed {
		response["summary"] = sess.Summary()
	}
	return jsonResult(response), nil
}

// HandleBack implements the stepwise/back MCP tool.
func (s *Service) HandleBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errRes := s.sessionFromArgs(req)
	if errRes != nil {
		return errRes, nil
	}

	res := sess.Back()
	if !res.Success {
		return errorResult("already at the first step"), nil
	}
	return jsonResult(map[string]any{"step": res.Step}), nil
}

// HandleFail implements the stepwise/fail MCP tool: record the failure,
// resolve a fallback and either switch the session or surface escalation.
func (s *Service) HandleFail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errRes := s.sessionFromArgs(req)
	if errRes != nil {
		return errRes, nil
	}

	args := req.GetArguments()
	reason, _ := args["reason"].(string)
	if reason == "" {
		return errorResult("reason argument is required"), nil
	}
	note, _ := args["note"].(string)

	stepID := ""
	if cur := sess.CurrentStep(); cur != nil {
		stepID = cur.ID
	}
	sess.RecordFailure(stepID, reason, note)

	sel := fallback.Select(sess.Article, s.store.All(), reason, note)
	if sel.Type == fallback.TypeEscalation {
		return jsonResult(map[string]any{
			"resolution": string(sel.Type),
			"escalation": sel.Escalation,
		}), nil
	}

	res := sess.SwitchToFallback(sel.Article, sel.Fallback)
	skipped := sess.ConsumeSkipped()
	return jsonResult(map[string]any{
		"resolution":  string(sel.Type),
		"article_id":  sel.Article.ID,
		"fallback_id": sel.Fallback.ID,
		"skipped":     skipped,
		"total_steps": res.TotalSteps,
		"completed":   res.Completed,
		"step":        res.Step,
	}), nil
}

// HandleStatus implements the stepwise/status MCP tool.
func (s *Service) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errRes := s.sessionFromArgs(req)
	if errRes != nil {
		return errRes, nil
	}
	return jsonResult(map[string]any{
		"state":     sess.State,
		"step":      sess.CurrentStep(),
		"completed": sess.IsComplete(),
	}), nil
}

// HandleValidate implements the stepwise/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	a, errs := schema.ValidateFile(path)
	if schema.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d steps, %d fallbacks)", a.ID, len(a.Steps), len(a.Fallbacks))), nil
}

// HandleSchema implements the stepwise/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func (s *Service) sessionFromArgs(req mcp.CallToolRequest) (*runner.Session, *mcp.CallToolResult) {
	args := req.GetArguments()
	id, _ := args["session_id"].(string)
	if id == "" {
		return nil, errorResult("session_id argument is required")
	}
	sess := s.session(id)
	if sess == nil {
		return nil, errorResult(fmt.Sprintf("unknown session %q", id))
	}
	return sess, nil
}

func formatErrors(errs []*schema.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", e.Phase, e.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(string(data))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
