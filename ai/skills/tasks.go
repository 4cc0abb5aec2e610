// Package skills implements the structured-memory routines registered with
// the capability registry: tasks, habits and day/week planning.
package skills

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/store"
)

// Task is one planner entry.
type Task struct {
	Task string `json:"task"`
	Due  string `json:"due,omitempty"`
}

// Tasks manages the task list in structured memory.
type Tasks struct {
	mem store.StructuredMemory
}

func NewTasks(mem store.StructuredMemory) *Tasks {
	return &Tasks{mem: mem}
}

func (t *Tasks) Register(r *tools.Registry) {
	r.RegisterSkill(tools.Capability{
		Name:        "add_task",
		Description: "Add a task to the local planner.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.AddTaskParams)
			if !ok {
				return nil, errors.New("add_task: unexpected params type")
			}
			return t.Add(ctx, p)
		},
	})
}

// Add appends a task and returns true on success.
func (t *Tasks) Add(ctx context.Context, p tools.AddTaskParams) (bool, error) {
	data, err := t.mem.Load(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to load tasks")
	}

	list := decodeTasks(data)
	list = append(list, Task{Task: p.Task, Due: p.Due})

	data["tasks"] = encodeAny(list)
	if err := t.mem.Save(ctx, data); err != nil {
		return false, errors.Wrap(err, "failed to save tasks")
	}
	return true, nil
}

// List returns all stored tasks.
func (t *Tasks) List(ctx context.Context) ([]Task, error) {
	data, err := t.mem.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tasks")
	}
	return decodeTasks(data), nil
}

func decodeTasks(data map[string]any) []Task {
	list := []Task{}
	decodeKey(data, "tasks", &list)
	return list
}

// decodeKey extracts data[key] into out via a JSON round trip. Structured
// memory holds untyped JSON, so this is the one conversion point.
func decodeKey(data map[string]any, key string, out any) {
	raw, ok := data[key]
	if !ok {
		return
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return
	}
	_ = json.Unmarshal(encoded, out)
}

func encodeAny(value any) any {
	encoded, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return value
	}
	return generic
}
