// Package knowledge condenses page context into the bounded grounding text
// used by the voice assistant, and phrases responses against it.
//
// The knowledge base is rebuilt on every request rather than cached; each
// conversation grounds on a fresh extraction of the page.
package knowledge

import (
	"context"
	"fmt"

	"github.com/pagevox/pagevox/pkg/page"
)

// Completer is the single text-in/text-out capability the compressor needs.
// *chat.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Compressor derives knowledge bases and spoken lines from page context.
type Compressor struct {
	completer Completer
}

// NewCompressor returns a Compressor backed by the given completer.
func NewCompressor(c Completer) *Compressor {
	return &Compressor{completer: c}
}

// Build condenses a page document into the knowledge base that becomes the
// assistant's sole source of truth.
func (k *Compressor) Build(ctx context.Context, doc *page.Document) (string, error) {
	kb, err := k.completer.Complete(ctx, buildSystemPrompt, "Page info:\n"+doc.ContextString())
	if err != nil {
		return "", fmt.Errorf("knowledge: build: %w", err)
	}
	return kb, nil
}

// Welcome produces the short spoken welcome line for a page, grounded on its
// knowledge base and ending with the fixed closing phrase.
func (k *Compressor) Welcome(ctx context.Context, title, kb string) (string, error) {
	text, err := k.completer.Complete(ctx, welcomeSystemPrompt(title, kb), "Generate the welcome message now.")
	if err != nil {
		return "", fmt.Errorf("knowledge: welcome: %w", err)
	}
	return text, nil
}

// Answer phrases a grounded reply to the user's transcribed question.
// Questions outside the knowledge base get the fixed fallback sentence,
// enforced through the system prompt.
func (k *Compressor) Answer(ctx context.Context, kb, userText string) (string, error) {
	text, err := k.completer.Complete(ctx, answerSystemPrompt(kb), userText)
	if err != nil {
		return "", fmt.Errorf("knowledge: answer: %w", err)
	}
	return text, nil
}
