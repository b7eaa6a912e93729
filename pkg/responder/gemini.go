package responder

import (
	"context"
	"errors"
	"fmt"

	"github.com/igorsilveira/ticktock/pkg/a2a"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiInstruction = "Reply with the current time in the format YYYY-MM-DD HH:MM:SS."
)

type GeminiConfig struct {
	APIKey      string
	Model       string
	Instruction string
}

// Gemini asks a Gemini model for the reply. Earlier completed turns of the
// session are sent along as conversation history.
type Gemini struct {
	client      *genai.Client
	model       string
	instruction string
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key not set (set GOOGLE_API_KEY or GEMINI_API_KEY)")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	g := &Gemini{
		client:      client,
		model:       cfg.Model,
		instruction: cfg.Instruction,
	}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	if g.instruction == "" {
		g.instruction = DefaultGeminiInstruction
	}
	return g, nil
}

func (g *Gemini) Respond(ctx context.Context, query string, conv Conversation) ([]string, error) {
	var history []a2a.Message
	if conv != nil {
		history = conv.History()
	}
	contents := toContents(history, query)
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: g.instruction}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generating content: %w", err)
	}
	return replyTexts(resp), nil
}

func toContents(history []a2a.Message, query string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		text := m.Text()
		if text == "" {
			continue
		}
		role := "user"
		if m.Role == a2a.RoleAgent {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: text}},
		})
	}
	return append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: query}},
	})
}

// replyTexts collects the text parts of the first candidate. A response
// without content yields no texts.
func replyTexts(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return texts
}
