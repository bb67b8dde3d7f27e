// Package narrate turns query results into a short spoken explanation in the
// user's language.
package narrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flitsinc/go-datachat/internal/ai"
	"github.com/flitsinc/go-datachat/internal/prompt"
	"github.com/flitsinc/go-datachat/internal/tabular"
)

const (
	NoDataReply     = "I checked the data, but there's nothing matching that right now."
	SummaryFallback = "Here's a quick summary of the available results."
)

// SampleRows bounds how many result rows are shown to the model.
const SampleRows = 3

type Chatter interface {
	Chat(ctx context.Context, messages ...ai.Message) (string, error)
}

type Narrator struct {
	llm Chatter
}

func NewNarrator(llm Chatter) *Narrator {
	return &Narrator{llm: llm}
}

// Narrate explains res for question. A nil or empty result gets NoDataReply
// without any model call. The reply is never empty; only a failed model call
// is returned as an error.
func (n *Narrator) Narrate(ctx context.Context, question string, res *tabular.Result) (string, error) {
	if res == nil || res.Empty() {
		return NoDataReply, nil
	}

	sample := res.Rows
	if len(sample) > SampleRows {
		sample = sample[:SampleRows]
	}
	english, err := n.llm.Chat(ctx,
		ai.System(prompt.NarrationSystemPrompt),
		ai.User(prompt.NarrationUserPrompt(question, res.Columns, tabular.FormatRows(sample))),
	)
	if err != nil {
		return "", fmt.Errorf("narrate result: %w", err)
	}
	if english == "" {
		english = SummaryFallback
	}

	lang := DetectLanguage(question)
	if lang == English {
		return english, nil
	}

	translated, err := n.llm.Chat(ctx,
		ai.System(prompt.TranslationSystemPrompt(string(lang))),
		ai.User(english),
	)
	if err != nil {
		return "", fmt.Errorf("translate narration to %s: %w", lang, err)
	}
	if translated == "" {
		slog.Debug("empty translation, keeping english", "language", lang)
		return english, nil
	}
	return translated, nil
}
