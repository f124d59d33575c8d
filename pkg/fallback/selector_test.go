package fallback

import (
	"testing"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

func articleWithFallbacks(id string, fbs ...schema.Fallback) *schema.Article {
	return &schema.Article{
		APIVersion: "article/v1",
		ID:         id,
		Title:      "Article " + id,
		Steps:      []schema.Step{{ID: "s1", Text: "Do the first thing"}},
		Fallbacks:  fbs,
		Escalation: schema.Escalation{
			When:   "Nothing else helped for " + id,
			Target: "Escalate " + id + " to support",
		},
	}
}

func fb(id, reason string, keywords ...string) schema.Fallback {
	return schema.Fallback{
		ID:              id,
		Reason:          reason,
		TriggerKeywords: keywords,
		Steps:           []schema.Step{{ID: id + "-s1", Text: "Fallback step for " + id}},
	}
}

func TestSelectSingleSameCategory(t *testing.T) {
	a := articleWithFallbacks("a", fb("reset", schema.ReasonSystemError))
	res := Select(a, []*schema.Article{a}, schema.ReasonSystemError, "")
	if res.Type != TypeSameArticle {
		t.Fatalf("type = %s, want same-article", res.Type)
	}
	if res.Fallback.ID != "reset" || res.Article.ID != "a" {
		t.Errorf("selected %s from %s", res.Fallback.ID, res.Article.ID)
	}
}

func TestSelectKeywordTieBreak(t *testing.T) {
	a := articleWithFallbacks("a",
		fb("smtp-fix", schema.ReasonSystemError, "smtp", "port"),
		fb("quota-fix", schema.ReasonSystemError, "quota", "space"),
	)

	res := Select(a, []*schema.Article{a}, schema.ReasonSystemError, "smtp port wrong")
	if res.Fallback.ID != "smtp-fix" {
		t.Errorf("selected %s, want smtp-fix (keyword overlap 2 vs 0)", res.Fallback.ID)
	}

	res = Select(a, []*schema.Article{a}, schema.ReasonSystemError, "disk quota or space exhausted")
	if res.Fallback.ID != "quota-fix" {
		t.Errorf("selected %s, want quota-fix", res.Fallback.ID)
	}
}

func TestSelectTieResolvesToDeclarationOrder(t *testing.T) {
	a := articleWithFallbacks("a",
		fb("first", schema.ReasonNoChange, "alpha"),
		fb("second", schema.ReasonNoChange, "beta"),
	)
	// Note matches neither keyword set: both score 0 — first declared wins.
	res := Select(a, []*schema.Article{a}, schema.ReasonNoChange, "nothing matched here")
	if res.Fallback.ID != "first" {
		t.Errorf("tie should resolve to declaration order, got %s", res.Fallback.ID)
	}
}

func TestSelectKeywordMatchingIsExactToken(t *testing.T) {
	a := articleWithFallbacks("a",
		fb("port-fix", schema.ReasonSystemError, "port"),
		fb("cert-fix", schema.ReasonSystemError, "certificate"),
	)
	// "portal" contains "port" as substring but is a different token —
	// neither keyword matches, so declaration order decides.
	res := Select(a, []*schema.Article{a}, schema.ReasonSystemError, "the portal is broken")
	if res.Fallback.ID != "port-fix" {
		t.Errorf("got %s", res.Fallback.ID)
	}
	// Exact token does match.
	res = Select(a, []*schema.Article{a}, schema.ReasonSystemError, "bad certificate shown")
	if res.Fallback.ID != "cert-fix" {
		t.Errorf("exact token should win: got %s", res.Fallback.ID)
	}
}

func TestSelectCrossArticle(t *testing.T) {
	current := articleWithFallbacks("current", fb("other-fix", schema.ReasonOther))
	b := articleWithFallbacks("b", fb("b-perm", schema.ReasonPermissionIssue))
	c := articleWithFallbacks("c", fb("c-perm", schema.ReasonPermissionIssue))

	// Corpus order decides: b comes before c, so b's match wins even though
	// c also has a permission-issue fallback.
	res := Select(current, []*schema.Article{current, b, c}, schema.ReasonPermissionIssue, "access denied")
	if res.Type != TypeCrossArticle {
		t.Fatalf("type = %s, want cross-article", res.Type)
	}
	if res.Article.ID != "b" || res.Fallback.ID != "b-perm" {
		t.Errorf("selected %s from %s, want b-perm from b", res.Fallback.ID, res.Article.ID)
	}
}

func TestSelectSameArticleBeatsCrossArticle(t *testing.T) {
	current := articleWithFallbacks("current", fb("local", schema.ReasonSystemError))
	other := articleWithFallbacks("other", fb("remote", schema.ReasonSystemError))

	res := Select(current, []*schema.Article{other, current}, schema.ReasonSystemError, "")
	if res.Type != TypeSameArticle || res.Fallback.ID != "local" {
		t.Errorf("same-article tier must win: %s/%v", res.Type, res.Fallback)
	}
}

func TestSelectEscalation(t *testing.T) {
	current := articleWithFallbacks("current", fb("sys", schema.ReasonSystemError))
	other := articleWithFallbacks("other", fb("nochange", schema.ReasonNoChange))

	res := Select(current, []*schema.Article{current, other}, schema.ReasonPermissionIssue, "cannot open settings")
	if res.Type != TypeEscalation {
		t.Fatalf("type = %s, want escalation", res.Type)
	}
	if res.Escalation.When != "Nothing else helped for current" ||
		res.Escalation.Target != "Escalate current to support" {
		t.Errorf("escalation must carry the current article's text verbatim: %+v", res.Escalation)
	}
}

func TestSelectUnknownReasonEscalates(t *testing.T) {
	a := articleWithFallbacks("a", fb("sys", schema.ReasonSystemError))
	res := Select(a, []*schema.Article{a}, "not-a-category", "")
	if res.Type != TypeEscalation {
		t.Errorf("unknown category should fall through to escalation, got %s", res.Type)
	}
}
