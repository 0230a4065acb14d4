package notification

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/domain/match"
)

func testResult(imageURL string, score float64) match.Result {
	a := alert.Reconstruct("alert-1", "owner@example.com", "blue backpack with stickers", []float32{1, 0})
	f := item.Reconstruct("item-1", "navy backpack, laptop sleeve", []float32{1, 0}, imageURL)
	return match.NewResult(a, f, score)
}

func TestFromMatch_Fields(t *testing.T) {
	res := testResult("", 0.8765)
	req, err := FromMatch(&res, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Recipient() != "owner@example.com" {
		t.Errorf("unexpected recipient %q", req.Recipient())
	}
	if req.Subject() != DefaultSubject {
		t.Errorf("unexpected subject %q", req.Subject())
	}
	if req.AlertID() != "alert-1" || req.ItemID() != "item-1" {
		t.Errorf("unexpected ids %q / %q", req.AlertID(), req.ItemID())
	}

	body := req.Body()
	for _, want := range []string{
		"blue backpack with stickers",
		"navy backpack, laptop sleeve",
		"88%",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<img") {
		t.Error("body must not contain an image without an image URL")
	}
}

func TestFromMatch_WithImage(t *testing.T) {
	res := testResult("https://cdn.example.com/items/1.jpg", 0.7)
	req, err := FromMatch(&res, "Custom subject")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Subject() != "Custom subject" {
		t.Errorf("unexpected subject %q", req.Subject())
	}
	if !strings.Contains(req.Body(), `<img src="https://cdn.example.com/items/1.jpg"`) {
		t.Errorf("body missing image tag:\n%s", req.Body())
	}
}

func TestFromMatch_EscapesUserText(t *testing.T) {
	a := alert.Reconstruct("a", "x@example.com", `<script>alert("x")</script>`, []float32{1})
	f := item.Reconstruct("f", "<b>bold</b>", []float32{1}, "")
	res := match.NewResult(a, f, 0.9)

	req, err := FromMatch(&res, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(req.Body(), "<script>") || strings.Contains(req.Body(), "<b>bold</b>") {
		t.Errorf("user text must be escaped:\n%s", req.Body())
	}
}
