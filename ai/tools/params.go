package tools

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Typed parameters per action type. Plans arrive as untrusted JSON from the
// LLM; decoding them into these structs at the executor boundary makes
// malformed plans fail fast and typed instead of via duck-typed field access.

// AddEventParams schedules a calendar event.
type AddEventParams struct {
	Name        string   `json:"name"`
	Begin       string   `json:"begin"`
	End         string   `json:"end,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ListEventsParams filters calendar events by date range.
type ListEventsParams struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// RemoveEventParams deletes a calendar event.
type RemoveEventParams struct {
	Name  string `json:"name"`
	Begin string `json:"begin,omitempty"`
}

// GetFileParams reads from the local filesystem.
type GetFileParams struct {
	Action  string `json:"action"` // list, read, write
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

// QueryNoteParams searches long-term memory.
type QueryNoteParams struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// RememberFactParams saves a fact to long-term memory.
type RememberFactParams struct {
	Fact string `json:"fact"`
}

// AddTaskParams adds a task to the planner.
type AddTaskParams struct {
	Task string `json:"task"`
	Due  string `json:"due,omitempty"`
}

// AddHabitParams creates a recurring habit.
type AddHabitParams struct {
	Name        string   `json:"name"`
	TimeOfDay   string   `json:"time_of_day,omitempty"`
	DaysOfWeek  []string `json:"days_of_week,omitempty"`
	Description string   `json:"description,omitempty"`
}

// DeleteHabitParams removes a habit by name.
type DeleteHabitParams struct {
	Name string `json:"name"`
}

// TrackHabitParams marks a habit completed on a date.
type TrackHabitParams struct {
	Name string `json:"name"`
	Date string `json:"date,omitempty"`
}

// ListHabitsParams lists habits; no fields, present for schema completeness.
type ListHabitsParams struct{}

// PlanParams drives plan_day / plan_week.
type PlanParams struct {
	Date string `json:"date,omitempty"`
}

type decoder func(raw map[string]any) (any, error)

func decodeInto[T any](raw map[string]any) (any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid params")
	}
	var params T
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.Wrap(err, "invalid params")
	}
	return params, nil
}

var paramDecoders = map[string]decoder{
	"add_event": func(raw map[string]any) (any, error) {
		v, err := decodeInto[AddEventParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(AddEventParams)
		if params.Name == "" {
			return nil, errors.New("add_event requires a name")
		}
		if params.Begin == "" {
			return nil, errors.New("add_event requires a begin time")
		}
		return params, nil
	},
	"list_events": decodeInto[ListEventsParams],
	"remove_event": func(raw map[string]any) (any, error) {
		v, err := decodeInto[RemoveEventParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(RemoveEventParams)
		if params.Name == "" {
			return nil, errors.New("remove_event requires a name")
		}
		return params, nil
	},
	"get_file": func(raw map[string]any) (any, error) {
		v, err := decodeInto[GetFileParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(GetFileParams)
		if params.Action == "" || params.Path == "" {
			return nil, errors.New("get_file requires action and path")
		}
		return params, nil
	},
	"query_note": func(raw map[string]any) (any, error) {
		v, err := decodeInto[QueryNoteParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(QueryNoteParams)
		if params.Query == "" {
			return nil, errors.New("query_note requires a query")
		}
		return params, nil
	},
	"remember_fact": func(raw map[string]any) (any, error) {
		v, err := decodeInto[RememberFactParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(RememberFactParams)
		if params.Fact == "" {
			return nil, errors.New("remember_fact requires a fact")
		}
		return params, nil
	},
	"add_task": func(raw map[string]any) (any, error) {
		v, err := decodeInto[AddTaskParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(AddTaskParams)
		if params.Task == "" {
			return nil, errors.New("add_task requires a task")
		}
		return params, nil
	},
	"add_habit": func(raw map[string]any) (any, error) {
		v, err := decodeInto[AddHabitParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(AddHabitParams)
		if params.Name == "" {
			return nil, errors.New("add_habit requires a name")
		}
		return params, nil
	},
	"delete_habit": func(raw map[string]any) (any, error) {
		v, err := decodeInto[DeleteHabitParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(DeleteHabitParams)
		if params.Name == "" {
			return nil, errors.New("delete_habit requires a name")
		}
		return params, nil
	},
	"track_habit": func(raw map[string]any) (any, error) {
		v, err := decodeInto[TrackHabitParams](raw)
		if err != nil {
			return nil, err
		}
		params := v.(TrackHabitParams)
		if params.Name == "" {
			return nil, errors.New("track_habit requires a name")
		}
		return params, nil
	},
	"list_habits": decodeInto[ListHabitsParams],
	"plan_day":    decodeInto[PlanParams],
	"plan_week":   decodeInto[PlanParams],
}

// DecodeParams validates and decodes raw action parameters for the given
// action type. Unknown action types pass the raw map through unchanged so
// that externally registered capabilities can define their own shapes.
func DecodeParams(actionType string, raw map[string]any) (any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	decode, ok := paramDecoders[actionType]
	if !ok {
		return raw, nil
	}
	return decode(raw)
}
