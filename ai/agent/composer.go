package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/ai/tools/calendar"
)

// ResponseComposer renders the final user-facing text from the run's
// outcomes. Composition is deterministic except for the optional model
// summary of event lists, which falls back to a bulleted rendering.
type ResponseComposer struct {
	llm llm.Service
}

func NewResponseComposer(llmService llm.Service) *ResponseComposer {
	return &ResponseComposer{llm: llmService}
}

func (c *ResponseComposer) Stage(ctx context.Context, r *Record) StageResult {
	r.Response = c.Compose(ctx, r.Err, r.Results)
	return Continue(r)
}

// ComposeError renders the short-circuit path taken when an upstream
// stage failed.
func (c *ResponseComposer) ComposeError(r *Record) {
	r.Response = "Error: " + r.Err
}

// Compose maps outcomes to text, one line per outcome.
func (c *ResponseComposer) Compose(ctx context.Context, runErr string, results []Outcome) string {
	if runErr != "" {
		return "Error: " + runErr
	}
	if len(results) == 0 {
		return "No result."
	}

	lines := make([]string, 0, len(results))
	for _, outcome := range results {
		lines = append(lines, c.renderOutcome(ctx, outcome))
	}
	return strings.Join(lines, "\n")
}

func (c *ResponseComposer) renderOutcome(ctx context.Context, o Outcome) string {
	switch o.Kind {
	case OutcomeChat:
		return o.Text
	case OutcomeError:
		return "[Error] " + o.Text
	case OutcomeTool:
		switch o.Type {
		case IntentAddEvent:
			if ok, _ := o.Value.(bool); ok {
				return "Event added to calendar."
			}
		case IntentListEvents:
			if events, ok := eventsFromValue(o.Value); ok {
				return c.renderEvents(ctx, events)
			}
		}
		return stringifyValue(o.Value)
	case OutcomeSkill:
		if o.Type == IntentAddTask {
			if ok, _ := o.Value.(bool); ok {
				return "Task added to planner."
			}
		}
		return stringifyValue(o.Value)
	}
	return stringifyValue(o.Value)
}

func (c *ResponseComposer) renderEvents(ctx context.Context, events []calendar.Event) string {
	if len(events) == 0 {
		return "You have no events for that date."
	}
	if c.llm != nil {
		if summary, err := c.summarizeEvents(ctx, events); err == nil && summary != "" {
			return summary
		}
	}
	return bulletedEvents(events)
}

func (c *ResponseComposer) summarizeEvents(ctx context.Context, events []calendar.Event) (string, error) {
	encoded, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(
		"Summarize the following calendar events for the user in one short, friendly reply. "+
			"Do not invent events.\nEvents: %s", encoded)
	return c.llm.CompleteText(ctx, prompt, llm.TextOptions{Temperature: 0})
}

func bulletedEvents(events []calendar.Event) string {
	var b strings.Builder
	noun := "events"
	if len(events) == 1 {
		noun = "event"
	}
	fmt.Fprintf(&b, "You have %d %s:", len(events), noun)
	for _, event := range events {
		b.WriteString("\n- ")
		b.WriteString(event.Name)
		if when := eventTime(event.Begin); when != "" {
			b.WriteString(" at ")
			b.WriteString(when)
		}
	}
	return b.String()
}

func eventTime(begin string) string {
	layouts := []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02", time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, begin); err == nil {
			if t.Hour() == 0 && t.Minute() == 0 {
				return t.Format("2006-01-02")
			}
			return t.Format("2006-01-02 15:04")
		}
	}
	return begin
}

// eventsFromValue accepts both the typed slice produced in-process and
// the generic form that survives a JSON round trip.
func eventsFromValue(value any) ([]calendar.Event, bool) {
	switch v := value.(type) {
	case []calendar.Event:
		return v, true
	case []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		var events []calendar.Event
		if err := json.Unmarshal(encoded, &events); err != nil {
			return nil, false
		}
		return events, true
	}
	return nil, false
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "No result."
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", v)
	}
}
