package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/stepwise/pkg/retrieval"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

const emailYAML = `
apiVersion: article/v1
id: email-send-failure
title: Email stuck in outbox
tags: [email, smtp]
product: Mailhost
keywords: [smtp, outbox, send]
steps:
  - id: check-outbox
    text: Open the Outbox folder
  - id: resend
    text: Select the message and click Send again
fallbacks:
  - id: smtp-reset
    reason: system-error
    trigger_keywords: [smtp, port]
    steps:
      - id: fix-port
        text: Set the SMTP port to 587 and save
escalation:
  when: No fallback resolves the failure
  target: Contact the mail administrator
`

const printerYAML = `
apiVersion: article/v1
id: printer-offline
title: Printer shows offline
tags: [printer]
product: PrintServer
applies_when: platform == "windows"
steps:
  - id: restart-spooler
    text: Restart the print spooler service
escalation:
  when: Printer stays offline
  target: Open a hardware ticket
`

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestOpenAndGet(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"email.yaml":   emailYAML,
		"printer.yaml": printerYAML,
		"notes.txt":    "not an article",
	})

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("loaded %d articles, want 2", s.Len())
	}
	if a := s.Get("email-send-failure"); a == nil || a.Title != "Email stuck in outbox" {
		t.Errorf("Get = %+v", a)
	}
	if a := s.Get("nope"); a != nil {
		t.Errorf("unknown id should be nil, got %+v", a)
	}

	// All() keeps stable file-name order.
	all := s.All()
	if all[0].ID != "email-send-failure" || all[1].ID != "printer-offline" {
		t.Errorf("order = %s, %s", all[0].ID, all[1].ID)
	}
}

func TestOpenRejectsInvalidArticle(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"bad.yaml": "apiVersion: article/v1\nid: bad\ntitle: Bad\n", // missing escalation
	})
	if _, err := Open(dir); err == nil {
		t.Fatal("expected invalid corpus to fail Open")
	} else if !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestOpenRejectsDuplicateIDs(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.yaml": emailYAML,
		"b.yaml": emailYAML,
	})
	if _, err := Open(dir); err == nil || !strings.Contains(err.Error(), "duplicate article id") {
		t.Fatalf("expected duplicate-id error, got %v", err)
	}
}

func TestStoreSearch(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"email.yaml":   emailYAML,
		"printer.yaml": printerYAML,
	})
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	results, _ := s.Search("email not sending smtp", retrieval.Options{})
	if len(results) != 1 || results[0].Article.ID != "email-send-failure" {
		t.Errorf("search results = %+v", results)
	}
}

func TestApplicable(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"email.yaml":   emailYAML,
		"printer.yaml": printerYAML,
	})
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Printer article requires platform == "windows"; email has no guard.
	got := s.Applicable(map[string]any{"platform": "macos"})
	if len(got) != 1 || got[0].ID != "email-send-failure" {
		t.Errorf("applicable on macos = %v", ids(got))
	}

	got = s.Applicable(map[string]any{"platform": "windows"})
	if len(got) != 2 {
		t.Errorf("applicable on windows = %v", ids(got))
	}

	// Missing fact: expression evaluates false under undefined variables,
	// so the guarded article is excluded rather than erroring.
	got = s.Applicable(map[string]any{})
	if len(got) != 1 {
		t.Errorf("applicable with no facts = %v", ids(got))
	}
}

func TestReloadFile(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"email.yaml": emailYAML})
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	updated := strings.Replace(emailYAML, "Email stuck in outbox", "Email never leaves the outbox", 1)
	path := filepath.Join(dir, "email.yaml")
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := s.reloadFile(path)
	if err != nil {
		t.Fatalf("reloadFile: %v", err)
	}
	if a.Title != "Email never leaves the outbox" {
		t.Errorf("title = %q", a.Title)
	}
	if s.Len() != 1 {
		t.Errorf("reload must replace, not append: %d articles", s.Len())
	}
	if got := s.Get("email-send-failure"); got.Title != "Email never leaves the outbox" {
		t.Errorf("store still serves the stale article: %q", got.Title)
	}
}

func TestReloadFileRejectsInvalid(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"email.yaml": emailYAML})
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "email.yaml")
	if err := os.WriteFile(path, []byte("apiVersion: article/v1\nid: x\ntitle: X\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.reloadFile(path); err == nil {
		t.Fatal("invalid update must be rejected")
	}
	// Stale-but-valid article stays served.
	if a := s.Get("email-send-failure"); a == nil {
		t.Error("rejected reload must not evict the previous version")
	}
}

func ids(articles []*schema.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}
