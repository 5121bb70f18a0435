// Package ai generates comment replies through Anthropic's language-and-
// vision models using langchain abstractions.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/figsync/internal/retry"
	"github.com/figsync/pkg/models"
)

// defaultSystemPrompt is used when no override is configured.
const defaultSystemPrompt = `You are a design assistant replying inside Figma comment threads.
You receive the conversation so far, the comment addressed to you, and, when
available, a rendered snapshot of the design region the thread is pinned to.
Answer the comment directly and concretely. Keep replies short enough to read
comfortably in a comment thread, reference what is visible in the design when
an image is provided, and never mention that you are an automated system
unless asked.`

const defaultMaxTokens = 1024

// Generator produces replies for triggering comments.
type Generator struct {
	apiKey string
	model  string
}

// NewGenerator creates a Generator bound to an API key and model.
func NewGenerator(apiKey, model string) *Generator {
	return &Generator{apiKey: apiKey, model: model}
}

// Generate requests a reply for the processing context. The prior thread
// becomes alternating chat turns, generated messages taking the AI role, and
// the region snapshot is attached to the final human turn when present.
// Failures are retried with backoff for transient errors and then returned
// to the caller; the comment stays unmarked and is re-attempted next cycle.
func (g *Generator) Generate(ctx context.Context, pctx models.ProcessingContext, systemPrompt string) (string, error) {
	llm, err := anthropic.New(
		anthropic.WithToken(g.apiKey),
		anthropic.WithModel(g.model),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create completion client: %w", err)
	}

	messages := buildMessages(pctx, systemPrompt)

	log.Debug().
		Str("model", g.model).
		Str("comment_id", pctx.CommentID).
		Int("prior_messages", len(pctx.Prior)).
		Bool("has_image", pctx.ImageBase64 != "").
		Msg("Requesting completion")

	var response *llms.ContentResponse
	result := retry.RetryWithBackoff(ctx, retry.LLMRetryConfig(), func() error {
		var callErr error
		response, callErr = llm.GenerateContent(ctx, messages,
			llms.WithMaxTokens(defaultMaxTokens))
		return callErr
	})
	if !result.Success {
		return "", fmt.Errorf("completion request failed after %d attempts: %w",
			result.Attempts, result.LastError)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	reply := strings.TrimSpace(response.Choices[0].Content)
	if reply == "" {
		return "", fmt.Errorf("completion returned empty reply")
	}
	return reply, nil
}

// buildMessages converts the processing context into chat messages.
func buildMessages(pctx models.ProcessingContext, systemPrompt string) []llms.MessageContent {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
	}

	for _, msg := range pctx.Prior {
		role := llms.ChatMessageTypeHuman
		text := fmt.Sprintf("%s: %s", msg.AuthorHandle, msg.Text)
		if msg.IsGenerated {
			role = llms.ChatMessageTypeAI
			text = msg.Text
		}
		messages = append(messages, llms.TextParts(role, text))
	}

	parts := []llms.ContentPart{
		llms.TextPart(finalPrompt(pctx)),
	}
	if pctx.ImageBase64 != "" {
		if imageBytes, err := base64.StdEncoding.DecodeString(pctx.ImageBase64); err == nil {
			parts = append(parts, llms.BinaryPart("image/png", imageBytes))
		} else {
			log.Debug().Err(err).Str("comment_id", pctx.CommentID).Msg("Dropping undecodable image from completion request")
		}
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: parts,
	})

	return messages
}

// finalPrompt renders the triggering comment with its document context.
func finalPrompt(pctx models.ProcessingContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Document: %s\n", pctx.DocumentName)
	if pctx.RegionID != "" {
		fmt.Fprintf(&b, "The attached image shows the design region the comment thread is pinned to.\n")
	}
	fmt.Fprintf(&b, "\n%s: %s", pctx.AuthorHandle, pctx.CommentText)

	return b.String()
}
