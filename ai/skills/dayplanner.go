package skills

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/ai/tools/calendar"
)

// DayPlan is the structured output of plan_day.
type DayPlan struct {
	Date   string           `json:"date"`
	Events []calendar.Event `json:"events"`
	Habits []Habit          `json:"habits"`
	Tasks  []Task           `json:"tasks"`
}

// WeekPlan is the structured output of plan_week.
type WeekPlan struct {
	Start  string           `json:"start"`
	End    string           `json:"end"`
	Events []calendar.Event `json:"events"`
	Habits []Habit          `json:"habits"`
	Tasks  []Task           `json:"tasks"`
}

// DayPlanner composes plans from the calendar, habits and tasks.
type DayPlanner struct {
	cal    *calendar.Calendar
	habits *Habits
	tasks  *Tasks
}

func NewDayPlanner(cal *calendar.Calendar, habits *Habits, tasks *Tasks) *DayPlanner {
	return &DayPlanner{cal: cal, habits: habits, tasks: tasks}
}

func (d *DayPlanner) Register(r *tools.Registry) {
	r.RegisterSkill(tools.Capability{
		Name:        "plan_day",
		Description: "Compose a plan for one day from events, habits and tasks.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.PlanParams)
			if !ok {
				return nil, errors.New("plan_day: unexpected params type")
			}
			return d.PlanDay(ctx, p.Date)
		},
	})
	r.RegisterSkill(tools.Capability{
		Name:        "plan_week",
		Description: "Compose a plan for the coming week from events, habits and tasks.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.PlanParams)
			if !ok {
				return nil, errors.New("plan_week: unexpected params type")
			}
			return d.PlanWeek(ctx, p.Date)
		},
	})
}

// weekdayCodes maps Go weekdays to the two-letter codes habits use.
var weekdayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

func resolveDate(date string) time.Time {
	if date != "" {
		if t, err := time.ParseInLocation("2006-01-02", date, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}

// PlanDay returns the events, scheduled habits and open tasks for one date.
func (d *DayPlanner) PlanDay(ctx context.Context, date string) (*DayPlan, error) {
	day := resolveDate(date)
	dayStr := day.Format("2006-01-02")

	events, err := d.cal.ListEvents(ctx, tools.ListEventsParams{Start: dayStr, End: dayStr})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}

	allHabits, err := d.habits.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habits")
	}
	code := weekdayCodes[day.Weekday()]
	scheduled := []Habit{}
	for _, habit := range allHabits {
		if len(habit.DaysOfWeek) == 0 || containsCode(habit.DaysOfWeek, code) {
			scheduled = append(scheduled, habit)
		}
	}

	tasks, err := d.tasks.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}

	return &DayPlan{
		Date:   dayStr,
		Events: events,
		Habits: scheduled,
		Tasks:  tasks,
	}, nil
}

// PlanWeek returns events for the seven days starting at date plus all
// habits and open tasks.
func (d *DayPlanner) PlanWeek(ctx context.Context, date string) (*WeekPlan, error) {
	start := resolveDate(date)
	end := start.AddDate(0, 0, 6)

	events, err := d.cal.ListEvents(ctx, tools.ListEventsParams{
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}

	habits, err := d.habits.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habits")
	}

	tasks, err := d.tasks.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}

	return &WeekPlan{
		Start:  start.Format("2006-01-02"),
		End:    end.Format("2006-01-02"),
		Events: events,
		Habits: habits,
		Tasks:  tasks,
	}, nil
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
