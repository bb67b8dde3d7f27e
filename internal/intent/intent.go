// Package intent turns a user question into either a read-only query or a
// direct spoken answer.
package intent

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/flitsinc/go-datachat/internal/ai"
	"github.com/flitsinc/go-datachat/internal/prompt"
	"github.com/flitsinc/go-datachat/internal/tabular"
)

// FallbackReply replaces an empty model reply so there is always something to say.
const FallbackReply = "Hmm... I'm having a small pause there. Could you rephrase that?"

// Chatter is the model call the resolver depends on.
type Chatter interface {
	Chat(ctx context.Context, messages ...ai.Message) (string, error)
}

type Kind int

const (
	KindAnswer Kind = iota
	KindQuery
)

func (k Kind) String() string {
	if k == KindQuery {
		return "query"
	}
	return "answer"
}

// Outcome is the classified resolver output.
type Outcome struct {
	Kind Kind
	Text string
}

func (o Outcome) IsQuery() bool { return o.Kind == KindQuery }

// Classify applies the verb allow-list to raw resolver output. Only text whose
// leading keyword is SELECT becomes a query; anything else, including other
// SQL, is an answer to be spoken.
func Classify(raw string) Outcome {
	text := strings.TrimSpace(raw)
	if leadingKeyword(text) == "SELECT" && tabular.IsReadOnlyQuery(text) {
		return Outcome{Kind: KindQuery, Text: text}
	}
	return Outcome{Kind: KindAnswer, Text: text}
}

func leadingKeyword(text string) string {
	end := strings.IndexFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(text)
	}
	return strings.ToUpper(text[:end])
}

type Resolver struct {
	llm    Chatter
	system string
}

func NewResolver(llm Chatter) *Resolver {
	return &Resolver{llm: llm, system: prompt.ResolverSystemPrompt()}
}

// Resolve returns the raw model reply, never empty. Model failures are
// returned unchanged; there is no retry.
func (r *Resolver) Resolve(ctx context.Context, question, schema string) (string, error) {
	out, err := r.llm.Chat(ctx,
		ai.System(r.system),
		ai.User(prompt.ResolverUserPrompt(schema, question)),
	)
	if err != nil {
		return "", fmt.Errorf("resolve intent: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return FallbackReply, nil
	}
	return out, nil
}
