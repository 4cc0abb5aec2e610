package skills

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/store"
)

// Habit is one recurring habit with its completion history.
type Habit struct {
	Name        string   `json:"name"`
	TimeOfDay   string   `json:"time_of_day,omitempty"`  // e.g. "07:00"
	DaysOfWeek  []string `json:"days_of_week,omitempty"` // e.g. ["MO", "WE", "FR"]
	Description string   `json:"description,omitempty"`
	History     []string `json:"history"` // completion dates, YYYY-MM-DD
}

// TrackResult reports a habit completion attempt.
type TrackResult struct {
	Habit  string `json:"habit"`
	Date   string `json:"date"`
	Status string `json:"status"` // completed, not found
}

// Habits manages habits in structured memory.
type Habits struct {
	mem store.StructuredMemory
}

func NewHabits(mem store.StructuredMemory) *Habits {
	return &Habits{mem: mem}
}

func (h *Habits) Register(r *tools.Registry) {
	r.RegisterSkill(tools.Capability{
		Name:        "add_habit",
		Description: "Create a recurring habit.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.AddHabitParams)
			if !ok {
				return nil, errors.New("add_habit: unexpected params type")
			}
			return h.Add(ctx, p)
		},
	})
	r.RegisterSkill(tools.Capability{
		Name:        "list_habits",
		Description: "List all habits.",
		Run: func(ctx context.Context, _ any) (any, error) {
			return h.List(ctx)
		},
	})
	r.RegisterSkill(tools.Capability{
		Name:        "delete_habit",
		Description: "Delete a habit by name.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.DeleteHabitParams)
			if !ok {
				return nil, errors.New("delete_habit: unexpected params type")
			}
			return h.Delete(ctx, p.Name)
		},
	})
	r.RegisterSkill(tools.Capability{
		Name:        "track_habit",
		Description: "Mark a habit completed for a date.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.TrackHabitParams)
			if !ok {
				return nil, errors.New("track_habit: unexpected params type")
			}
			return h.Track(ctx, p)
		},
	})
}

func (h *Habits) Add(ctx context.Context, p tools.AddHabitParams) (bool, error) {
	data, err := h.mem.Load(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to load habits")
	}

	habits := decodeHabits(data)
	habits = append(habits, Habit{
		Name:        p.Name,
		TimeOfDay:   p.TimeOfDay,
		DaysOfWeek:  p.DaysOfWeek,
		Description: p.Description,
		History:     []string{},
	})

	data["habits"] = encodeAny(habits)
	if err := h.mem.Save(ctx, data); err != nil {
		return false, errors.Wrap(err, "failed to save habits")
	}
	return true, nil
}

func (h *Habits) List(ctx context.Context) ([]Habit, error) {
	data, err := h.mem.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load habits")
	}
	return decodeHabits(data), nil
}

// Delete removes a habit by name. Returns true when a habit was removed.
func (h *Habits) Delete(ctx context.Context, name string) (bool, error) {
	data, err := h.mem.Load(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to load habits")
	}

	habits := decodeHabits(data)
	kept := habits[:0]
	removed := false
	for _, habit := range habits {
		if habit.Name == name {
			removed = true
			continue
		}
		kept = append(kept, habit)
	}
	if !removed {
		return false, nil
	}

	data["habits"] = encodeAny(kept)
	if err := h.mem.Save(ctx, data); err != nil {
		return false, errors.Wrap(err, "failed to save habits")
	}
	return true, nil
}

// Track marks the habit completed on the given date (today when absent).
func (h *Habits) Track(ctx context.Context, p tools.TrackHabitParams) (*TrackResult, error) {
	date := p.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	data, err := h.mem.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load habits")
	}

	habits := decodeHabits(data)
	for i := range habits {
		if habits[i].Name != p.Name {
			continue
		}
		habits[i].History = append(habits[i].History, date)
		data["habits"] = encodeAny(habits)
		if err := h.mem.Save(ctx, data); err != nil {
			return nil, errors.Wrap(err, "failed to save habits")
		}
		return &TrackResult{Habit: p.Name, Date: date, Status: "completed"}, nil
	}
	return &TrackResult{Habit: p.Name, Date: date, Status: "not found"}, nil
}

func decodeHabits(data map[string]any) []Habit {
	habits := []Habit{}
	decodeKey(data, "habits", &habits)
	return habits
}
