package a2a

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError reports a structurally invalid model value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

type CardOption func(*AgentCard)

func WithProvider(organization, url string) CardOption {
	return func(c *AgentCard) {
		c.Provider = &Provider{Organization: organization, URL: url}
	}
}

func WithDocumentationURL(u string) CardOption {
	return func(c *AgentCard) { c.DocumentationURL = u }
}

func WithModes(input, output []string) CardOption {
	return func(c *AgentCard) {
		c.DefaultInputModes = input
		c.DefaultOutputModes = output
	}
}

func WithSkills(skills ...Skill) CardOption {
	return func(c *AgentCard) { c.Skills = append(c.Skills, skills...) }
}

// NewAgentCard builds and validates a card.
func NewAgentCard(name, description, endpoint, version string, caps Capabilities, opts ...CardOption) (*AgentCard, error) {
	card := &AgentCard{
		Name:         name,
		Description:  description,
		URL:          endpoint,
		Version:      version,
		Capabilities: caps,
	}
	for _, opt := range opts {
		opt(card)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

func (c *AgentCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if c.URL == "" {
		return invalid("url", "must not be empty")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("url", "%q is not an absolute URL", c.URL)
	}
	if c.Version == "" {
		return invalid("version", "must not be empty")
	}
	if c.Provider != nil && c.Provider.Organization == "" {
		return invalid("provider.organization", "must not be empty")
	}
	for i, s := range c.Skills {
		if s.ID == "" || s.Name == "" {
			return invalid(fmt.Sprintf("skills[%d]", i), "id and name are required")
		}
	}
	return nil
}

func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewMessage builds a validated message. At least one part is required.
func NewMessage(role Role, parts ...Part) (Message, error) {
	msg := Message{Role: role, Parts: parts}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// NewAgentMessage builds an agent reply with one text part per non-empty
// reply. The part list is never nil, so an empty reply encodes as [].
func NewAgentMessage(replies ...string) Message {
	parts := make([]Part, 0, len(replies))
	for _, r := range replies {
		if r == "" {
			continue
		}
		parts = append(parts, NewTextPart(r))
	}
	return Message{Role: RoleAgent, Parts: parts}
}

func (p Part) Validate() error {
	if p.Kind() != PartTypeText {
		return invalid("part.type", "unsupported part type %q", p.Type)
	}
	return nil
}

func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAgent:
	case "":
		return invalid("message.role", "must not be empty")
	default:
		return invalid("message.role", "unknown role %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return invalid("message.parts", "at least one part is required")
	}
	for i, p := range m.Parts {
		if err := p.Validate(); err != nil {
			return invalid(fmt.Sprintf("message.parts[%d]", i), "%s", err.(*ValidationError).Reason)
		}
	}
	return nil
}

// Text joins the text parts of m, one per line.
func (m Message) Text() string {
	texts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Kind() == PartTypeText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (t Task) Validate() error {
	if t.ID == "" {
		return invalid("id", "must not be empty")
	}
	if !t.Status.State.valid() {
		return invalid("status.state", "unknown state %q", t.Status.State)
	}
	return nil
}

func (p TaskSendParams) Validate() error {
	if p.ID == "" {
		return invalid("id", "must not be empty")
	}
	if err := p.Message.Validate(); err != nil {
		return err
	}
	if p.Message.Role != RoleUser {
		return invalid("message.role", "task messages must come from %q", RoleUser)
	}
	return nil
}
