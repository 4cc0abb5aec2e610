package skills

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/ai/tools/calendar"
	"github.com/einlabs/ein/store"
)

type docMem struct {
	mu   sync.Mutex
	data map[string]any
}

func (m *docMem) Load(_ context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return map[string]any{}, nil
	}
	return m.data, nil
}

func (m *docMem) Save(_ context.Context, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

var _ store.StructuredMemory = (*docMem)(nil)

func TestTasksAddAndList(t *testing.T) {
	tasks := NewTasks(&docMem{})
	ctx := context.Background()

	ok, err := tasks.Add(ctx, tools.AddTaskParams{Task: "buy milk", Due: "2026-01-29"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tasks.Add(ctx, tools.AddTaskParams{Task: "call mom"})
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "buy milk", list[0].Task)
	assert.Equal(t, "2026-01-29", list[0].Due)
	assert.Equal(t, "call mom", list[1].Task)
}

func TestHabitsLifecycle(t *testing.T) {
	habits := NewHabits(&docMem{})
	ctx := context.Background()

	ok, err := habits.Add(ctx, tools.AddHabitParams{
		Name:       "reading",
		TimeOfDay:  "21:00",
		DaysOfWeek: []string{"MO", "WE", "FR"},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := habits.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "reading", list[0].Name)
	assert.Empty(t, list[0].History)

	result, err := habits.Track(ctx, tools.TrackHabitParams{Name: "reading", Date: "2026-01-28"})
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)

	list, err = habits.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-28"}, list[0].History)

	removed, err := habits.Delete(ctx, "reading")
	require.NoError(t, err)
	assert.True(t, removed)

	list, err = habits.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHabitsTrackDefaultsToToday(t *testing.T) {
	habits := NewHabits(&docMem{})
	ctx := context.Background()

	_, err := habits.Add(ctx, tools.AddHabitParams{Name: "stretch"})
	require.NoError(t, err)

	result, err := habits.Track(ctx, tools.TrackHabitParams{Name: "stretch"})
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), result.Date)
}

func TestHabitsTrackUnknownHabit(t *testing.T) {
	habits := NewHabits(&docMem{})
	result, err := habits.Track(context.Background(), tools.TrackHabitParams{Name: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "not found", result.Status)
}

func TestHabitsDeleteUnknown(t *testing.T) {
	habits := NewHabits(&docMem{})
	removed, err := habits.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPlanDayFiltersHabitsByWeekday(t *testing.T) {
	ctx := context.Background()
	cal := calendar.New(filepath.Join(t.TempDir(), "cal.ics"))
	habits := NewHabits(&docMem{})
	tasks := NewTasks(&docMem{})

	// 2026-01-28 is a Wednesday.
	_, err := cal.AddEvent(ctx, tools.AddEventParams{Name: "Dentist", Begin: "2026-01-28T10:30:00"})
	require.NoError(t, err)
	_, err = habits.Add(ctx, tools.AddHabitParams{Name: "reading", DaysOfWeek: []string{"MO", "WE"}})
	require.NoError(t, err)
	_, err = habits.Add(ctx, tools.AddHabitParams{Name: "swimming", DaysOfWeek: []string{"SA"}})
	require.NoError(t, err)
	_, err = habits.Add(ctx, tools.AddHabitParams{Name: "stretch"}) // every day
	require.NoError(t, err)
	_, err = tasks.Add(ctx, tools.AddTaskParams{Task: "buy milk"})
	require.NoError(t, err)

	planner := NewDayPlanner(cal, habits, tasks)
	plan, err := planner.PlanDay(ctx, "2026-01-28")
	require.NoError(t, err)

	assert.Equal(t, "2026-01-28", plan.Date)
	require.Len(t, plan.Events, 1)
	assert.Equal(t, "Dentist", plan.Events[0].Name)

	names := make([]string, len(plan.Habits))
	for i, h := range plan.Habits {
		names[i] = h.Name
	}
	assert.ElementsMatch(t, []string{"reading", "stretch"}, names)

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "buy milk", plan.Tasks[0].Task)
}

func TestPlanWeekSpansSevenDays(t *testing.T) {
	ctx := context.Background()
	cal := calendar.New(filepath.Join(t.TempDir(), "cal.ics"))
	habits := NewHabits(&docMem{})
	tasks := NewTasks(&docMem{})

	_, err := cal.AddEvent(ctx, tools.AddEventParams{Name: "Inside", Begin: "2026-02-01T09:00:00"})
	require.NoError(t, err)
	_, err = cal.AddEvent(ctx, tools.AddEventParams{Name: "Outside", Begin: "2026-02-10T09:00:00"})
	require.NoError(t, err)
	_, err = habits.Add(ctx, tools.AddHabitParams{Name: "swimming", DaysOfWeek: []string{"SA"}})
	require.NoError(t, err)

	planner := NewDayPlanner(cal, habits, tasks)
	plan, err := planner.PlanWeek(ctx, "2026-01-26")
	require.NoError(t, err)

	assert.Equal(t, "2026-01-26", plan.Start)
	assert.Equal(t, "2026-02-01", plan.End)
	require.Len(t, plan.Events, 1)
	assert.Equal(t, "Inside", plan.Events[0].Name)
	// Week plans carry every habit regardless of weekday.
	assert.Len(t, plan.Habits, 1)
}
