package narrate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/flitsinc/go-datachat/internal/ai"
	"github.com/flitsinc/go-datachat/internal/tabular"
)

type scriptedChatter struct {
	replies []string
	errs    []error
	calls   [][]ai.Message
}

func (s *scriptedChatter) Chat(ctx context.Context, messages ...ai.Message) (string, error) {
	i := len(s.calls)
	s.calls = append(s.calls, messages)
	var reply string
	var err error
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return reply, err
}

func octoberResult() *tabular.Result {
	return &tabular.Result{
		Columns: []string{"Month", "Total_Sales"},
		Rows: [][]any{
			{"August", int64(3120000)},
			{"September", int64(3390000)},
			{"October", int64(3865000)},
			{"November", int64(3550000)},
		},
	}
}

func TestNarrateNoDataSkipsModel(t *testing.T) {
	llm := &scriptedChatter{}
	n := NewNarrator(llm)

	for _, res := range []*tabular.Result{nil, {Columns: []string{"Month"}, Rows: [][]any{}}} {
		out, err := n.Narrate(context.Background(), "What was March sales?", res)
		if err != nil {
			t.Fatalf("narrate: %v", err)
		}
		if out != NoDataReply {
			t.Fatalf("expected no-data reply, got %q", out)
		}
	}
	if len(llm.calls) != 0 {
		t.Fatalf("expected no model calls, got %d", len(llm.calls))
	}
}

func TestNarrateEnglish(t *testing.T) {
	llm := &scriptedChatter{replies: []string{"October sales came to about 38.65 lakh rupees."}}
	out, err := NewNarrator(llm).Narrate(context.Background(), "What was October sales?", octoberResult())
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}
	if out != "October sales came to about 38.65 lakh rupees." {
		t.Fatalf("unexpected narration %q", out)
	}
	if len(llm.calls) != 1 {
		t.Fatalf("english input must not be translated, calls=%d", len(llm.calls))
	}
	user := llm.calls[0][1].Content
	if strings.Contains(user, "November") {
		t.Fatalf("sample must be bounded to %d rows: %q", SampleRows, user)
	}
	if !strings.Contains(user, "Columns: [Month, Total_Sales]") {
		t.Fatalf("columns missing from prompt: %q", user)
	}
}

func TestNarrateEmptyEnglishFallsBack(t *testing.T) {
	llm := &scriptedChatter{replies: []string{""}}
	out, err := NewNarrator(llm).Narrate(context.Background(), "What was October sales?", octoberResult())
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}
	if out != SummaryFallback {
		t.Fatalf("expected summary fallback, got %q", out)
	}
}

func TestNarrateTranslatesTamil(t *testing.T) {
	llm := &scriptedChatter{replies: []string{"October sales were 38.65 lakh.", "அக்டோபர் விற்பனை 38.65 லட்சம்."}}
	out, err := NewNarrator(llm).Narrate(context.Background(), "அக்டோபர் sales என்ன?", octoberResult())
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}
	if out != "அக்டோபர் விற்பனை 38.65 லட்சம்." {
		t.Fatalf("unexpected narration %q", out)
	}
	if len(llm.calls) != 2 || !strings.Contains(llm.calls[1][0].Content, "TAMIL") {
		t.Fatalf("expected a TAMIL translation call, got %+v", llm.calls)
	}
	if llm.calls[1][1].Content != "October sales were 38.65 lakh." {
		t.Fatalf("translation must be fed the english text")
	}
}

func TestNarrateEmptyTranslationKeepsEnglish(t *testing.T) {
	llm := &scriptedChatter{replies: []string{"October sales were 38.65 lakh.", ""}}
	out, err := NewNarrator(llm).Narrate(context.Background(), "అక్టోబర్ అమ్మకాలు?", octoberResult())
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}
	if out != "October sales were 38.65 lakh." {
		t.Fatalf("expected english fallback, got %q", out)
	}
}

func TestNarrateModelFailureIsHard(t *testing.T) {
	boom := errors.New("call completion api: timeout")
	_, err := NewNarrator(&scriptedChatter{errs: []error{boom}}).Narrate(context.Background(), "q", octoberResult())
	if !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}

	llm := &scriptedChatter{replies: []string{"english", ""}, errs: []error{nil, boom}}
	_, err = NewNarrator(llm).Narrate(context.Background(), "அக்டோபர்?", octoberResult())
	if !errors.Is(err, boom) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestNarrateNeverEmpty(t *testing.T) {
	questions := []string{"What was October sales?", "அக்டோபர்?", "అక్టోబర్?"}
	results := []*tabular.Result{nil, {Columns: []string{"a"}}, octoberResult()}
	for _, q := range questions {
		for _, res := range results {
			out, err := NewNarrator(&scriptedChatter{}).Narrate(context.Background(), q, res)
			if err != nil {
				t.Fatalf("narrate: %v", err)
			}
			if out == "" {
				t.Fatalf("empty narration for %q", q)
			}
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want Language
	}{
		{in: "What was October sales?", want: English},
		{in: "", want: English},
		{in: "October மாசம் sales?", want: Tamil},
		{in: "అక్టోబర్ sales?", want: Telugu},
		{in: "అక్టోబర్ and அக்டோபர்", want: Tamil},
		{in: "अक्टूबर की बिक्री", want: English},
	}
	for _, tc := range cases {
		if got := DetectLanguage(tc.in); got != tc.want {
			t.Fatalf("DetectLanguage(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
