package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/flitsinc/go-datachat/internal/ai"
)

type fakeChatter struct {
	reply    string
	err      error
	messages []ai.Message
}

func (f *fakeChatter) Chat(ctx context.Context, messages ...ai.Message) (string, error) {
	f.messages = messages
	return f.reply, f.err
}

func TestResolvePassesSchemaAndQuestion(t *testing.T) {
	llm := &fakeChatter{reply: "SELECT Total_Sales FROM Monthly_Overall_Summary WHERE Month = 'October'"}
	r := NewResolver(llm)

	out, err := r.Resolve(context.Background(), "What was October sales?", "Table: Monthly_Overall_Summary")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !Classify(out).IsQuery() {
		t.Fatalf("expected a query, got %q", out)
	}
	if len(llm.messages) != 2 || llm.messages[0].Role != ai.RoleSystem {
		t.Fatalf("unexpected messages %+v", llm.messages)
	}
	user := llm.messages[1].Content
	if !strings.Contains(user, "Table: Monthly_Overall_Summary") || !strings.Contains(user, "What was October sales?") {
		t.Fatalf("user prompt missing schema or question: %q", user)
	}
}

func TestResolveEmptyReplyFallsBack(t *testing.T) {
	r := NewResolver(&fakeChatter{reply: "   "})
	out, err := r.Resolve(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != FallbackReply {
		t.Fatalf("expected fallback, got %q", out)
	}
}

func TestResolvePropagatesModelFailure(t *testing.T) {
	boom := errors.New("llm rate limited: slow down")
	r := NewResolver(&fakeChatter{err: boom})
	if _, err := r.Resolve(context.Background(), "hello", ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
	}{
		{raw: "SELECT * FROM Monthly_Overall_Summary", kind: KindQuery},
		{raw: "\n  select Month from x", kind: KindQuery},
		{raw: "I don't have weather data, but I can tell you about sales.", kind: KindAnswer},
		{raw: "DROP TABLE Monthly_Overall_Summary", kind: KindAnswer},
		{raw: "DELETE FROM Payroll_Summary", kind: KindAnswer},
		{raw: "```sql\nSELECT 1\n```", kind: KindAnswer},
		{raw: "Selecting the right month is tricky... which one?", kind: KindAnswer},
		{raw: "SELECT\n*\nFROM Payroll_Summary", kind: KindQuery},
	}
	for _, tc := range cases {
		got := Classify(tc.raw)
		if got.Kind != tc.kind {
			t.Fatalf("Classify(%q) = %s, want %s", tc.raw, got.Kind, tc.kind)
		}
		if got.Text != strings.TrimSpace(tc.raw) {
			t.Fatalf("Classify(%q) text = %q", tc.raw, got.Text)
		}
	}
}
