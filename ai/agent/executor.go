package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/ai/tools"
)

const chatSystemPrompt = "Your name is Ein. You are a helpful, productivity AI agent."

// ActionExecutor runs each planned action in order, isolating per-action
// failures as error outcomes so one bad action never aborts the run.
type ActionExecutor struct {
	llm      llm.Service
	registry *tools.Registry
}

func NewActionExecutor(llmService llm.Service, registry *tools.Registry) *ActionExecutor {
	return &ActionExecutor{llm: llmService, registry: registry}
}

func (e *ActionExecutor) Stage(ctx context.Context, r *Record) StageResult {
	plan := r.Plan
	if len(plan) == 0 {
		if r.Intent != IntentChat {
			return Fail(r, "No plan to execute.")
		}
		// Chat runs converse even when the planner produced nothing.
		plan = []ActionDescriptor{{Type: IntentChat, Params: map[string]any{"message": r.Input}}}
	}

	results := make([]Outcome, 0, len(plan))
	for _, action := range plan {
		results = append(results, e.execute(ctx, r, action))
	}
	r.Results = results
	return Continue(r)
}

func (e *ActionExecutor) execute(ctx context.Context, r *Record, action ActionDescriptor) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("action panicked", "type", action.Type, "panic", p)
			outcome = ErrorOutcome(fmt.Sprintf("%s: %v", action.Type, p))
		}
	}()

	// Conversation is never gated.
	if action.Type == IntentChat {
		return e.chat(ctx, r, action)
	}

	if !r.Permissions[action.Type] {
		return ErrorOutcome("Permission denied for " + action.Type)
	}

	params, err := tools.DecodeParams(action.Type, action.Params)
	if err != nil {
		return ErrorOutcome(fmt.Sprintf("%s: %v", action.Type, err))
	}

	if capability, ok := e.registry.Tool(action.Type); ok {
		value, err := capability.Run(ctx, params)
		if err != nil {
			return ErrorOutcome(fmt.Sprintf("%s: %v", action.Type, err))
		}
		return ToolOutcome(action.Type, value)
	}
	if capability, ok := e.registry.Skill(action.Type); ok {
		value, err := capability.Run(ctx, params)
		if err != nil {
			return ErrorOutcome(fmt.Sprintf("%s: %v", action.Type, err))
		}
		return SkillOutcome(action.Type, value)
	}
	return ErrorOutcome("Unknown action type: " + action.Type)
}

// chat sends the message to the model with the persona prompt, retrieved
// facts and the conversation window. Model failure yields a chat outcome
// carrying the error text so the run still responds.
func (e *ActionExecutor) chat(ctx context.Context, r *Record, action ActionDescriptor) Outcome {
	message := r.Input
	if m, ok := action.Params["message"].(string); ok && m != "" {
		message = m
	}

	system := chatSystemPrompt
	if facts := contextFacts(r.Context); len(facts) > 0 {
		var b strings.Builder
		b.WriteString(system)
		b.WriteString("\n\nRelevant Context about the User:\n")
		for _, fact := range facts {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
		system = b.String()
	}

	messages := make([]llm.Message, 0, len(r.History)+2)
	messages = append(messages, llm.SystemPrompt(system))
	messages = append(messages, r.History...)
	messages = append(messages, llm.UserMessage(message))

	reply, err := e.llm.CompleteChat(ctx, messages)
	if err != nil {
		return ChatOutcome("[Chat error: " + err.Error() + "]")
	}
	return ChatOutcome(reply)
}

func contextFacts(c map[string]any) []string {
	if c == nil {
		return nil
	}
	switch v := c["rag"].(type) {
	case []string:
		return v
	case []any:
		facts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				facts = append(facts, s)
			}
		}
		return facts
	}
	return nil
}
