package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/einlabs/ein/store"
)

// Decision is one permission verdict with its human-readable reason.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// PolicyTable maps action labels to decisions. Labels absent from the
// table are denied.
type PolicyTable map[string]Decision

// DefaultPolicyTable returns the stock permission table. File access is
// the one capability denied out of the box.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		IntentChat:        {Allowed: true, Reason: "Conversation is always permitted"},
		IntentAddTask:     {Allowed: true, Reason: "Task creation is permitted"},
		IntentAddEvent:    {Allowed: true, Reason: "Calendar writes are permitted"},
		IntentListEvents:  {Allowed: true, Reason: "Calendar reads are permitted"},
		IntentQueryNote:   {Allowed: true, Reason: "Note search is permitted"},
		IntentPlanDay:     {Allowed: true, Reason: "Day planning is permitted"},
		IntentPlanWeek:    {Allowed: true, Reason: "Week planning is permitted"},
		IntentListHabits:  {Allowed: true, Reason: "Habit reads are permitted"},
		IntentAddHabit:    {Allowed: true, Reason: "Habit creation is permitted"},
		IntentDeleteHabit: {Allowed: true, Reason: "Habit deletion is permitted"},
		IntentTrackHabit:  {Allowed: true, Reason: "Habit tracking is permitted"},
		IntentGetFile:     {Allowed: false, Reason: "File access not permitted by default"},
		"remove_event":    {Allowed: true, Reason: "Calendar deletions are permitted"},
		"parse_message":   {Allowed: true, Reason: "Message parsing is permitted"},
		"remember_fact":   {Allowed: true, Reason: "Memory writes are permitted"},
	}
}

// chatSafeActions are pre-authorized for chat-intent runs so a model plan
// may invoke them without a second gating pass.
var chatSafeActions = []string{
	IntentAddTask,
	IntentAddEvent,
	IntentListEvents,
	IntentListHabits,
	IntentAddHabit,
	IntentTrackHabit,
	IntentQueryNote,
	IntentPlanDay,
	IntentPlanWeek,
	"remember_fact",
	"remove_event",
}

// PolicyGate authorizes the classified intent and seeds the per-run
// permission set consulted by the executor.
type PolicyGate struct {
	table PolicyTable
	audit store.AuditLog
}

func NewPolicyGate(table PolicyTable, audit store.AuditLog) *PolicyGate {
	if table == nil {
		table = DefaultPolicyTable()
	}
	return &PolicyGate{table: table, audit: audit}
}

// Decide looks up the label. Unknown labels are denied.
func (g *PolicyGate) Decide(label string) Decision {
	if d, ok := g.table[label]; ok {
		return d
	}
	return Decision{Allowed: false, Reason: "Unknown or unconfigured intent"}
}

func (g *PolicyGate) Stage(ctx context.Context, r *Record) StageResult {
	intent := r.Intent
	if intent == "" {
		intent = IntentUnknown
	}

	decision := g.Decide(intent)
	g.record(ctx, r, intent, decision)

	if !decision.Allowed {
		return Fail(r, fmt.Sprintf("Action '%s' blocked: %s", intent, decision.Reason))
	}

	r.Permissions[intent] = true
	for _, action := range r.Plan {
		if d, ok := g.table[action.Type]; ok {
			r.Permissions[action.Type] = d.Allowed
		}
	}
	if intent == IntentChat {
		for _, label := range chatSafeActions {
			if d, ok := g.table[label]; ok && d.Allowed {
				r.Permissions[label] = true
			}
		}
	}
	return Continue(r)
}

// record appends the decision to the audit log. Auditing is best effort
// and never blocks the run.
func (g *PolicyGate) record(ctx context.Context, r *Record, intent string, decision Decision) {
	if g.audit == nil {
		return
	}
	err := g.audit.Append(ctx, &store.AuditEntry{
		Step:      "policy_gate",
		CreatedTs: time.Now().Unix(),
		Payload: map[string]any{
			"intent":  intent,
			"allowed": decision.Allowed,
			"reason":  decision.Reason,
			"input":   r.Input,
		},
	})
	if err != nil {
		slog.Warn("policy audit append failed", "intent", intent, "error", err)
	}
}
