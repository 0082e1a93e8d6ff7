package translate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/hyperifyio/scholarsearch/internal/llm"
)

// LLM translates with an OpenAI-compatible chat model.
type LLM struct {
	Client llm.Client
	Model  string
}

func (l *LLM) Translate(ctx context.Context, text, source, target string) (Result, error) {
	if l.Client == nil {
		return Result{}, fmt.Errorf("llm translator has no client")
	}
	src, dst := languageName(source), languageName(target)
	resp, err := l.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(
				"You translate academic search queries from %s to %s. Reply with the translated query only, no quotes or commentary.", src, dst)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return Result{}, fmt.Errorf("llm translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, ErrEmptyTranslation
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	out = strings.Trim(out, "\"“”")
	return Result{Text: out}, nil
}

// languageName renders a BCP 47 tag as an English language name, falling back
// to the tag itself.
func languageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}
