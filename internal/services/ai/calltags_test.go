package ai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/benvon/postcraft/internal/request"
)

func TestCallFields(t *testing.T) {
	t.Parallel()

	if got := callFields(context.Background()); len(got) != 0 {
		t.Errorf("untagged context produced %d fields", len(got))
	}

	ctx := request.WithRequestID(context.Background(), "req-9")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithVariation(ctx, "bold")

	got := map[string]string{}
	for _, f := range callFields(ctx) {
		got[f.Key] = f.String
	}
	want := map[string]string{"user_id": "user-1", "variation": "bold", "request_id": "req-9"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}

	// Tagging a variation must keep the user tag of the parent context
	if tagsFrom(WithVariation(WithUserID(context.Background(), "u"), "safe")).userID != "u" {
		t.Error("WithVariation dropped the user tag")
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 100)
	if got := utf8.RuneCountInString(Preview(long, false)); got != PreviewLength+3 {
		t.Errorf("Preview(short) length = %d, want %d", got, PreviewLength+3)
	}
	if got := Preview(long, true); got != long {
		t.Error("Preview(full) must keep text under the debug limit intact")
	}
}
