package prompt

import (
	"strings"
	"testing"
)

func TestBuilderOrdering(t *testing.T) {
	b := NewBuilder()
	b.Add(Block{ID: "low", Priority: 1, Content: "low"})
	b.Add(Block{ID: "high", Priority: 10, Content: "high"})
	b.Add(Block{ID: "mid", Priority: 5, Content: "mid"})
	b.Add(Block{ID: "blank", Priority: 50, Content: "   "})

	got := b.Build()
	expected := "high\n\nmid\n\nlow"
	if got != expected {
		t.Fatalf("unexpected build: %q", got)
	}
}

func TestBuilderTitles(t *testing.T) {
	b := NewBuilder()
	b.Add(Block{ID: "pauses", Title: "Pauses & rhythm", Content: "\nUse ellipses.\n"})
	got := b.Build()
	want := rule + "\nPAUSES & RHYTHM\n" + rule + "\nUse ellipses."
	if got != want {
		t.Fatalf("unexpected build:\n%s", got)
	}
}

func TestResolverSystemPromptCarriesPolicy(t *testing.T) {
	p := ResolverSystemPrompt()
	for _, want := range []string{
		"SELECT",
		"NEVER wrap SQL in markdown",
		"NEVER generate DELETE, UPDATE, DROP, or INSERT",
		"NEVER RETURN AN EMPTY RESPONSE",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("resolver prompt missing %q", want)
		}
	}
	if strings.Index(p, "STEP 1") > strings.Index(p, "STRICT RULES") {
		t.Fatalf("decision process must precede the strict rules")
	}
}

func TestNarrationUserPrompt(t *testing.T) {
	got := NarrationUserPrompt("What was October sales?", []string{"Month", "Total_Sales"}, "[('October', 3865000)]")
	want := "Question: What was October sales?\nColumns: [Month, Total_Sales]\nSample: [('October', 3865000)]"
	if got != want {
		t.Fatalf("unexpected prompt:\n%s", got)
	}
}
