package agent

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/einlabs/ein/ai/llm"
)

// Intent labels the pipeline routes on.
const (
	IntentChat        = "chat"
	IntentAddTask     = "add_task"
	IntentAddEvent    = "add_event"
	IntentListEvents  = "list_events"
	IntentGetFile     = "get_file"
	IntentQueryNote   = "query_note"
	IntentPlanDay     = "plan_day"
	IntentPlanWeek    = "plan_week"
	IntentListHabits  = "list_habits"
	IntentAddHabit    = "add_habit"
	IntentDeleteHabit = "delete_habit"
	IntentTrackHabit  = "track_habit"
	IntentUnknown     = "unknown"
)

var allIntents = map[string]bool{
	IntentChat:        true,
	IntentAddTask:     true,
	IntentAddEvent:    true,
	IntentListEvents:  true,
	IntentGetFile:     true,
	IntentQueryNote:   true,
	IntentPlanDay:     true,
	IntentPlanWeek:    true,
	IntentListHabits:  true,
	IntentAddHabit:    true,
	IntentDeleteHabit: true,
	IntentTrackHabit:  true,
	IntentUnknown:     true,
}

// Surface cues for the cheap speech-act pass. Matched against the
// lowercased, trimmed utterance.
var (
	questionPrefixes = []string{"what", "do i", "what's", "show", "list", "anything", "when", "where", "who"}
	commandPrefixes  = []string{"add", "schedule", "create", "delete", "track", "plan", "remind", "put"}
)

// intentBuckets narrows the candidate labels the model may pick per
// speech act. Every bucket contains unknown as an escape hatch.
var intentBuckets = map[string][]string{
	"question": {IntentListEvents, IntentListHabits, IntentQueryNote, IntentGetFile, IntentChat, IntentUnknown},
	"command":  {IntentAddTask, IntentAddEvent, IntentAddHabit, IntentDeleteHabit, IntentTrackHabit, IntentPlanDay, IntentPlanWeek, IntentChat, IntentUnknown},
	"chat":     {IntentChat, IntentAddEvent, IntentAddTask, IntentAddHabit, IntentTrackHabit, IntentPlanDay, IntentPlanWeek, IntentUnknown},
}

// classifySpeechAct buckets the utterance by surface shape alone.
func classifySpeechAct(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if strings.HasSuffix(normalized, "?") {
		return "question"
	}
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return "question"
		}
	}
	for _, prefix := range commandPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return "command"
		}
	}
	return "chat"
}

// IntentClassifier resolves a freeform utterance to a single intent label.
type IntentClassifier struct {
	llm llm.Service
}

func NewIntentClassifier(llmService llm.Service) *IntentClassifier {
	return &IntentClassifier{llm: llmService}
}

func (c *IntentClassifier) Stage(ctx context.Context, r *Record) StageResult {
	r.Intent = c.Classify(ctx, r.Input)
	return Continue(r)
}

// Classify returns a member of the intent vocabulary. Any model failure or
// off-vocabulary reply degrades to chat so the run still produces a
// conversational response.
func (c *IntentClassifier) Classify(ctx context.Context, text string) string {
	act := classifySpeechAct(text)
	intent := c.classifyWithModel(ctx, text, act)
	if allIntents[intent] && intent != IntentUnknown {
		return intent
	}
	return IntentChat
}

func (c *IntentClassifier) classifyWithModel(ctx context.Context, text, act string) string {
	candidates := intentBuckets[act]
	if candidates == nil {
		candidates = intentBuckets["chat"]
	}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("Classify the user message into exactly one intent label.\n")
	b.WriteString("Allowed labels: ")
	b.WriteString(strings.Join(sorted, ", "))
	b.WriteString("\nReply with the label only, nothing else.\n")
	b.WriteString("Message: ")
	b.WriteString(text)

	reply, err := c.llm.CompleteText(ctx, b.String(), llm.TextOptions{Temperature: 0})
	if err != nil {
		slog.Warn("intent classification failed", "error", err)
		return IntentUnknown
	}

	label := firstToken(reply)
	for _, candidate := range candidates {
		if label == candidate {
			return label
		}
	}
	return IntentUnknown
}

func firstToken(s string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;\"'`")
}
