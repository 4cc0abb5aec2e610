// Package agent implements the orchestration pipeline that turns one user
// utterance into one response: intent classification, permission gating,
// context retrieval, plan synthesis, action execution, memory persistence
// and response composition.
package agent

import (
	"encoding/json"

	"github.com/einlabs/ein/ai/llm"
)

// historyWindow bounds the conversation history consulted per run.
const historyWindow = 10

// ActionDescriptor identifies one unit of work produced by planning.
type ActionDescriptor struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// UnmarshalJSON accepts params as either an object or a bare string; a bare
// string becomes {"message": s}, which is how chat actions carry their text.
func (a *ActionDescriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   string          `json:"type"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Type = raw.Type
	a.Params = nil
	if len(raw.Params) == 0 {
		return nil
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw.Params, &asMap); err == nil {
		a.Params = asMap
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw.Params, &asString); err == nil {
		a.Params = map[string]any{"message": asString}
		return nil
	}
	// Other shapes (numbers, arrays) are dropped rather than failing the
	// whole plan; the executor validates per-type params anyway.
	return nil
}

// OutcomeKind tags the variant of an action outcome.
type OutcomeKind string

const (
	OutcomeChat  OutcomeKind = "chat"
	OutcomeTool  OutcomeKind = "tool"
	OutcomeSkill OutcomeKind = "skill"
	OutcomeError OutcomeKind = "error"
)

// Outcome is the tagged result of executing one action descriptor.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	Type string      `json:"type,omitempty"` // action type for tool/skill outcomes
	Text string      `json:"text,omitempty"` // chat text or error message
	Value any        `json:"value,omitempty"`
}

func ChatOutcome(text string) Outcome {
	return Outcome{Kind: OutcomeChat, Text: text}
}

func ToolOutcome(actionType string, value any) Outcome {
	return Outcome{Kind: OutcomeTool, Type: actionType, Value: value}
}

func SkillOutcome(actionType string, value any) Outcome {
	return Outcome{Kind: OutcomeSkill, Type: actionType, Value: value}
}

func ErrorOutcome(message string) Outcome {
	return Outcome{Kind: OutcomeError, Text: message}
}

// Record is the shared state passed through every pipeline stage. One record
// is created per run and owned exclusively by that run.
type Record struct {
	Input       string
	Intent      string
	Plan        []ActionDescriptor
	Context     map[string]any
	Memory      map[string]any // per-turn working memory
	Permissions map[string]bool
	Results     []Outcome
	Err         string
	Response    string
	History     []llm.Message
}

// NewRecord creates the record for one run, clamping history to the
// sliding window.
func NewRecord(input string, history []llm.Message) *Record {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	return &Record{
		Input:       input,
		Memory:      map[string]any{},
		Permissions: map[string]bool{},
		History:     history,
	}
}
