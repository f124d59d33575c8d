package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/stepwise/pkg/corpus"
)

const mcpArticle = `
apiVersion: article/v1
id: email-send-failure
title: Email stuck in outbox
tags: [email, smtp]
product: Mailhost
keywords: [smtp, outbox]
steps:
  - id: check-outbox
    text: Open the Outbox folder
  - id: resend
    text: Select the message and click Send again
fallbacks:
  - id: smtp-reset
    reason: system-error
    trigger_keywords: [smtp]
    steps:
      - id: fb-fix-port
        text: Set the SMTP port to 587 and save
escalation:
  when: Nothing clears the outbox
  target: Contact the mail administrator
`

func testService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "email.yaml"), []byte(mcpArticle), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := corpus.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return NewService(store)
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return tc.Text
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	svc := testService(t)
	result, err := svc.HandleSearch(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for missing query")
	}
}

func TestHandleSearch_ReturnsHits(t *testing.T) {
	svc := testService(t)
	result, err := svc.HandleSearch(context.Background(), callReq(map[string]any{
		"query": "email not sending smtp",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "email-send-failure") {
		t.Errorf("search result missing article: %s", resultText(t, result))
	}
}

func TestStartContinueFlow(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	startRes, err := svc.HandleStart(ctx, callReq(map[string]any{"article_id": "email-send-failure"}))
	if err != nil {
		t.Fatal(err)
	}
	var started struct {
		SessionID  string `json:"session_id"`
		TotalSteps int    `json:"total_steps"`
	}
	if err := json.Unmarshal([]byte(resultText(t, startRes)), &started); err != nil {
		t.Fatal(err)
	}
	if started.SessionID == "" || started.TotalSteps != 2 {
		t.Fatalf("start response: %+v", started)
	}

	contRes, err := svc.HandleContinue(ctx, callReq(map[string]any{"session_id": started.SessionID}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, contRes), "resend") {
		t.Errorf("continue should present the second step: %s", resultText(t, contRes))
	}

	contRes, err = svc.HandleContinue(ctx, callReq(map[string]any{"session_id": started.SessionID}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, contRes), `"completed": true`) {
		t.Errorf("final continue should complete: %s", resultText(t, contRes))
	}
}

func TestHandleFail_SwitchesToFallback(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	startRes, _ := svc.HandleStart(ctx, callReq(map[string]any{"article_id": "email-send-failure"}))
	var started struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(resultText(t, startRes)), &started); err != nil {
		t.Fatal(err)
	}

	failRes, err := svc.HandleFail(ctx, callReq(map[string]any{
		"session_id": started.SessionID,
		"reason":     "system-error",
		"note":       "smtp connection refused",
	}))
	if err != nil {
		t.Fatal(err)
	}
	out := resultText(t, failRes)
	if !strings.Contains(out, "same-article") || !strings.Contains(out, "smtp-reset") {
		t.Errorf("fail should resolve the smtp fallback: %s", out)
	}
}

func TestHandleFail_Escalates(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	startRes, _ := svc.HandleStart(ctx, callReq(map[string]any{"article_id": "email-send-failure"}))
	var started struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(resultText(t, startRes)), &started); err != nil {
		t.Fatal(err)
	}

	failRes, err := svc.HandleFail(ctx, callReq(map[string]any{
		"session_id": started.SessionID,
		"reason":     "permission-issue",
	}))
	if err != nil {
		t.Fatal(err)
	}
	out := resultText(t, failRes)
	if !strings.Contains(out, "escalation") || !strings.Contains(out, "Contact the mail administrator") {
		t.Errorf("unmatched reason should escalate: %s", out)
	}
}

func TestHandleContinue_UnknownSession(t *testing.T) {
	svc := testService(t)
	result, err := svc.HandleContinue(context.Background(), callReq(map[string]any{"session_id": "nope"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for unknown session")
	}
}

func TestHandleValidate_MissingPath(t *testing.T) {
	result, err := HandleValidate(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestHandleSchema(t *testing.T) {
	result, err := HandleSchema(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Errorf("schema export failed: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "article") {
		t.Error("schema output should mention the article type")
	}
}
