package a2a

// AgentCard is the discovery document served at PathAgentCard. A card is built
// once at startup and never mutated afterwards.
type AgentCard struct {
	Name               string       `json:"name"`
	Description        string       `json:"description,omitempty"`
	URL                string       `json:"url"`
	Version            string       `json:"version"`
	Provider           *Provider    `json:"provider,omitempty"`
	DocumentationURL   string       `json:"documentationUrl,omitempty"`
	Capabilities       Capabilities `json:"capabilities"`
	DefaultInputModes  []string     `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string     `json:"defaultOutputModes,omitempty"`
	Skills             []Skill      `json:"skills,omitempty"`
}

type Capabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

type Provider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

func (s TaskState) valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateCompleted, TaskStateFailed:
		return true
	}
	return false
}

type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId,omitempty"`
	Status    TaskStatus `json:"status"`
	Messages  []Message  `json:"messages"`
}

type TaskStatus struct {
	State TaskState `json:"state"`
}

type Message struct {
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PartType discriminates the Part union. The zero value is read as
// PartTypeText so that the short {"text": "..."} form is accepted and
// re-emitted unchanged.
type PartType string

const PartTypeText PartType = "text"

type Part struct {
	Type PartType `json:"type,omitempty"`
	Text string   `json:"text"`
}

// Kind returns the effective variant of p.
func (p Part) Kind() PartType {
	if p.Type == "" {
		return PartTypeText
	}
	return p.Type
}

// TaskSendParams is the payload of a tasks/send call.
type TaskSendParams struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId,omitempty"`
	Message   Message        `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
