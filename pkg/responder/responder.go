// Package responder produces reply text for user messages. The protocol layer
// only sees the Responder interface; what stands behind it (a clock, a model)
// is chosen at startup.
package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/igorsilveira/ticktock/pkg/a2a"
)

// Conversation is the session a query belongs to.
type Conversation interface {
	ID() string
	UserID() string
	Get(key string) (any, bool)
	Set(key string, value any)
	History() []a2a.Message
}

// Responder returns zero or more reply texts for query. An empty reply is
// valid and distinct from an error.
type Responder interface {
	Respond(ctx context.Context, query string, conv Conversation) ([]string, error)
}

// Func adapts a plain function to Responder.
type Func func(ctx context.Context, query string, conv Conversation) ([]string, error)

func (f Func) Respond(ctx context.Context, query string, conv Conversation) ([]string, error) {
	return f(ctx, query, conv)
}

// Echo replies with the query itself.
type Echo struct{}

func (Echo) Respond(_ context.Context, query string, _ Conversation) ([]string, error) {
	return []string{query}, nil
}

const DefaultTimeLayout = "2006-01-02 15:04:05"

// Clock tells the current time and ignores the query.
type Clock struct {
	Now    func() time.Time
	Layout string
}

func (c Clock) Respond(_ context.Context, _ string, _ Conversation) ([]string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	layout := c.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return []string{"The current time is: " + now().Format(layout)}, nil
}

type Config struct {
	Kind        string
	Model       string
	APIKey      string
	Instruction string
	TimeLayout  string
}

// New builds the responder named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Responder, error) {
	switch strings.ToLower(cfg.Kind) {
	case "echo":
		return Echo{}, nil
	case "clock", "":
		return Clock{Layout: cfg.TimeLayout}, nil
	case "gemini":
		return NewGemini(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Instruction: cfg.Instruction,
		})
	default:
		return nil, fmt.Errorf("responder: unknown kind %q", cfg.Kind)
	}
}
