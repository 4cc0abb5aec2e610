package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/store"
)

// habitIntents get the stored habit list injected into the planning
// context so the model can reference habits by name.
var habitIntents = map[string]bool{
	IntentPlanDay:     true,
	IntentPlanWeek:    true,
	IntentListHabits:  true,
	IntentAddHabit:    true,
	IntentDeleteHabit: true,
	IntentTrackHabit:  true,
}

// listEventsDatePattern pulls a date reference out of a calendar query:
// a relative word, a long-form date or an ISO date.
var listEventsDatePattern = regexp.MustCompile(`(?i)\b(tomorrow|today|\d{1,2} \w+ \d{4}|\d{4}-\d{2}-\d{2})\b`)

const plannerPromptTemplate = `You are a planning assistant. Today's date is %s.
Produce a JSON object of the form {"plan": [{"type": "<action>", "params": {...}}]}.
Allowed action types: %s.
Use only actions required to satisfy the request. Reply with JSON only.
Examples:
User: schedule a meeting tomorrow at 10:30 AM
{"plan": [{"type": "add_event", "params": {"name": "meeting", "date": "2026-01-28", "time": "10:30"}}]}
User: add buy milk to my todos
{"plan": [{"type": "add_task", "params": {"task": "buy milk"}}]}
Intent: %s
Context: %s
User: %s`

// PlanSynthesizer turns an authorized intent into an ordered action plan.
type PlanSynthesizer struct {
	llm      llm.Service
	registry *tools.Registry
	habits   store.StructuredMemory
	now      func() time.Time
}

func NewPlanSynthesizer(llmService llm.Service, registry *tools.Registry, habits store.StructuredMemory) *PlanSynthesizer {
	return &PlanSynthesizer{llm: llmService, registry: registry, habits: habits, now: time.Now}
}

func (p *PlanSynthesizer) Stage(ctx context.Context, r *Record) StageResult {
	// Calendar listing is deterministic; no model call needed.
	if r.Intent == IntentListEvents {
		r.Plan = []ActionDescriptor{{Type: IntentListEvents, Params: p.listEventsParams(r.Input)}}
		return Continue(r)
	}

	planningContext := map[string]any{}
	for key, value := range r.Context {
		planningContext[key] = value
	}
	if habitIntents[r.Intent] {
		planningContext["habits"] = p.loadHabits(ctx)
	}

	contextJSON, err := json.Marshal(planningContext)
	if err != nil {
		contextJSON = []byte("{}")
	}

	prompt := fmt.Sprintf(plannerPromptTemplate,
		p.now().Format("2006-01-02"),
		strings.Join(p.registry.ActionTypes(), ", "),
		r.Intent,
		contextJSON,
		r.Input,
	)

	reply, err := p.llm.CompleteText(ctx, prompt, llm.TextOptions{Temperature: 0})
	if err != nil {
		r.Plan = nil
		return Fail(r, "Planner error: "+err.Error())
	}

	planJSON, found := ExtractJSONObject(reply)
	if !found {
		planJSON = "{}"
	}

	var doc struct {
		Plan []ActionDescriptor `json:"plan"`
	}
	if err := json.Unmarshal([]byte(planJSON), &doc); err != nil {
		r.Plan = nil
		return Fail(r, "Planner error: "+err.Error())
	}

	for i := range doc.Plan {
		if doc.Plan[i].Type == IntentAddEvent {
			mergeEventDateTime(doc.Plan[i].Params)
		}
	}

	r.Plan = doc.Plan
	return Continue(r)
}

// listEventsParams extracts the date window from the utterance. A bare
// "what's on" style question yields empty params, listing today.
func (p *PlanSynthesizer) listEventsParams(input string) map[string]any {
	match := listEventsDatePattern.FindString(input)
	if match == "" {
		return map[string]any{}
	}
	switch strings.ToLower(match) {
	case "today":
		return map[string]any{"start": p.now().Format("2006-01-02")}
	case "tomorrow":
		return map[string]any{"start": p.now().Add(24 * time.Hour).Format("2006-01-02")}
	default:
		return map[string]any{"start": match}
	}
}

func (p *PlanSynthesizer) loadHabits(ctx context.Context) any {
	if p.habits == nil {
		return []any{}
	}
	data, err := p.habits.Load(ctx)
	if err != nil {
		return []any{}
	}
	if habits, ok := data["habits"]; ok {
		return habits
	}
	return []any{}
}

// mergeEventDateTime folds separate date and time params into the single
// begin timestamp the calendar expects. Unparseable parts are joined
// textually and left for the calendar's layout list.
func mergeEventDateTime(params map[string]any) {
	if params == nil {
		return
	}
	date, _ := params["date"].(string)
	clock, _ := params["time"].(string)
	if date == "" && clock == "" {
		return
	}
	delete(params, "date")
	delete(params, "time")

	if _, exists := params["begin"]; exists {
		return
	}
	switch {
	case date != "" && clock != "":
		if dt, err := time.Parse("2006-01-02 15:04", date+" "+clock); err == nil {
			params["begin"] = dt.Format("2006-01-02T15:04:05")
		} else {
			params["begin"] = date + "T" + clock
		}
	case date != "":
		params["begin"] = date
	}
}
