package retrieval

import (
	"testing"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

func emailArticle() *schema.Article {
	return &schema.Article{
		APIVersion: "article/v1",
		ID:         "email-send-failure",
		Title:      "Email stuck in outbox",
		Tags:       []string{"email", "smtp"},
		Product:    "Mailhost",
		Keywords:   []string{"smtp", "outbox", "send"},
		Escalation: schema.Escalation{When: "w", Target: "t"},
	}
}

func printerArticle() *schema.Article {
	return &schema.Article{
		APIVersion: "article/v1",
		ID:         "printer-offline",
		Title:      "Printer shows offline",
		Tags:       []string{"printer"},
		Product:    "PrintServer",
		Keywords:   []string{"spooler", "driver"},
		Escalation: schema.Escalation{When: "w", Target: "t"},
	}
}

func TestSearchRanking(t *testing.T) {
	corpus := []*schema.Article{printerArticle(), emailArticle()}

	results, _ := Search("email not sending smtp", corpus, Options{})
	if len(results) != 1 {
		t.Fatalf("expected exactly the email article, got %d results", len(results))
	}
	if results[0].Article.ID != "email-send-failure" {
		t.Errorf("top result = %s", results[0].Article.ID)
	}
	// tags email+smtp (3+3) + keywords smtp,send (1+1) = 8
	if results[0].Score != 8 {
		t.Errorf("score = %d, want 8", results[0].Score)
	}
}

func TestSearchExcludesZeroScores(t *testing.T) {
	corpus := []*schema.Article{emailArticle(), printerArticle()}
	results, _ := Search("wifi keeps dropping", corpus, Options{})
	if len(results) != 0 {
		t.Errorf("expected no results for unrelated query, got %d", len(results))
	}
}

func TestSearchLowConfidence(t *testing.T) {
	corpus := []*schema.Article{emailArticle(), printerArticle()}

	// Empty result set is low confidence.
	if _, low := Search("wifi keeps dropping", corpus, Options{}); !low {
		t.Error("empty result set should be low confidence")
	}

	// Score 8 (< 9) is still low confidence.
	if _, low := Search("email not sending smtp", corpus, Options{}); !low {
		t.Error("top score below threshold should be low confidence")
	}

	// Adding the product name pushes the top score to 10: confident.
	results, low := Search("mailhost email not sending smtp", corpus, Options{})
	if low {
		t.Errorf("top score %d should be confident", results[0].Score)
	}
	if results[0].Score != 10 {
		t.Errorf("score = %d, want 10", results[0].Score)
	}
}

func TestSearchProductMention(t *testing.T) {
	corpus := []*schema.Article{printerArticle()}
	results, _ := Search("printserver printer offline", corpus, Options{})
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	// tag printer (3) + product (2) + title both-direction fails (query not
	// contained in title, title not contained in query) + keyword none = 5
	if results[0].Score != 5 {
		t.Errorf("score = %d, want 5", results[0].Score)
	}
}

func TestSearchTitleContainment(t *testing.T) {
	corpus := []*schema.Article{emailArticle()}

	// Query contains the full title.
	results, _ := Search("help my email stuck in outbox again", corpus, Options{})
	if len(results) == 0 {
		t.Fatal("expected a result")
	}
	found := false
	for _, m := range results[0].Matches {
		if m == "title" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected title match, got %v", results[0].Matches)
	}
}

func TestSearchLimit(t *testing.T) {
	corpus := []*schema.Article{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		corpus = append(corpus, &schema.Article{
			APIVersion: "article/v1",
			ID:         id,
			Title:      "Email issue " + id,
			Tags:       []string{"email"},
			Escalation: schema.Escalation{When: "w", Target: "t"},
		})
	}

	results, _ := Search("email", corpus, Options{})
	if len(results) != DefaultLimit {
		t.Errorf("default limit: got %d results, want %d", len(results), DefaultLimit)
	}

	results, _ = Search("email", corpus, Options{Limit: 5})
	if len(results) != 5 {
		t.Errorf("explicit limit: got %d results, want 5", len(results))
	}

	// Ties keep corpus order.
	if results[0].Article.ID != "a" || results[4].Article.ID != "e" {
		t.Errorf("tie order not stable: %s … %s", results[0].Article.ID, results[4].Article.ID)
	}
}
