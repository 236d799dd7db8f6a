package ai

import (
	"context"

	"kimmigration/pkg/domain"
)

// Turn is one prior exchange entry passed as conversation history.
type Turn struct {
	Role domain.ChatRole
	Text string
}

// TextGenerator produces text from a system instruction, prior turns and a
// user message. The remote call is opaque: text in, text out, may fail.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt string, history []Turn, message string) (string, error)
}
