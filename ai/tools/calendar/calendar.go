// Package calendar manages events in a local ICS file.
package calendar

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/einlabs/ein/ai/tools"
)

// Event is the listing shape returned to the pipeline.
type Event struct {
	Name        string   `json:"name"`
	Begin       string   `json:"begin"`
	End         string   `json:"end,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Calendar reads and writes one ICS file. Access is serialized internally so
// concurrent pipeline runs can share an instance.
type Calendar struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Calendar {
	return &Calendar{path: path}
}

// Register adds the calendar capabilities to the registry.
func (c *Calendar) Register(r *tools.Registry) {
	r.RegisterTool(tools.Capability{
		Name:        "add_event",
		Description: "Add an event to the local calendar.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.AddEventParams)
			if !ok {
				return nil, errors.New("add_event: unexpected params type")
			}
			return c.AddEvent(ctx, p)
		},
	})
	r.RegisterTool(tools.Capability{
		Name:        "list_events",
		Description: "List calendar events, optionally filtered by date range or tag.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.ListEventsParams)
			if !ok {
				return nil, errors.New("list_events: unexpected params type")
			}
			return c.ListEvents(ctx, p)
		},
	})
	r.RegisterTool(tools.Capability{
		Name:        "remove_event",
		Description: "Remove a calendar event by name and begin time.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.RemoveEventParams)
			if !ok {
				return nil, errors.New("remove_event: unexpected params type")
			}
			return c.RemoveEvent(ctx, p.Name, p.Begin)
		},
	})
}

func (c *Calendar) load() (*ics.Calendar, error) {
	content, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ics.NewCalendar(), nil
		}
		return nil, errors.Wrapf(err, "failed to read calendar %s", c.path)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(string(content)))
	if err != nil {
		// A corrupt file is replaced by an empty calendar on next save.
		return ics.NewCalendar(), nil
	}
	return cal, nil
}

func (c *Calendar) save(cal *ics.Calendar) error {
	if err := os.WriteFile(c.path, []byte(cal.Serialize()), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write calendar %s", c.path)
	}
	return nil
}

// whenLayouts are the begin/end shapes produced by the planner: full ISO,
// minute precision, date+time concatenation fallback, date only.
var whenLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2 January 2006",
	time.RFC3339,
}

func parseWhen(value string) (time.Time, error) {
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized time %q", value)
}

// AddEvent appends an event and returns true on success.
func (c *Calendar) AddEvent(_ context.Context, p tools.AddEventParams) (bool, error) {
	begin, err := parseWhen(p.Begin)
	if err != nil {
		return false, errors.Wrap(err, "invalid begin time")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load()
	if err != nil {
		return false, err
	}

	event := cal.AddEvent(uuid.NewString())
	event.SetCreatedTime(time.Now())
	event.SetDtStampTime(time.Now())
	event.SetSummary(p.Name)
	event.SetStartAt(begin)
	if p.End != "" {
		if end, err := parseWhen(p.End); err == nil {
			event.SetEndAt(end)
		}
	}
	if p.Description != "" {
		event.SetDescription(p.Description)
	}
	if len(p.Tags) > 0 {
		event.SetProperty(ics.ComponentProperty(ics.PropertyCategories), strings.Join(p.Tags, ","))
	}

	if err := c.save(cal); err != nil {
		return false, err
	}
	return true, nil
}

// ListEvents returns events filtered by the optional start/end dates and tag.
func (c *Calendar) ListEvents(_ context.Context, p tools.ListEventsParams) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load()
	if err != nil {
		return nil, err
	}

	var startFilter, endFilter time.Time
	if p.Start != "" {
		if t, err := parseWhen(p.Start); err == nil {
			startFilter = t
		}
	}
	if p.End != "" {
		if t, err := parseWhen(p.End); err == nil {
			// A bare date as the end filter means "through that day".
			if len(p.End) == len("2006-01-02") {
				t = t.Add(24*time.Hour - time.Second)
			}
			endFilter = t
		}
	}

	events := []Event{}
	for _, e := range cal.Events() {
		begin, err := e.GetStartAt()
		if err != nil {
			continue
		}
		begin = begin.In(time.Local)

		if !startFilter.IsZero() && begin.Before(startFilter) {
			continue
		}
		if !endFilter.IsZero() && begin.After(endFilter) {
			continue
		}

		out := Event{
			Name:  propValue(e, ics.ComponentProperty(ics.PropertySummary)),
			Begin: begin.Format("2006-01-02T15:04:05"),
		}
		if end, err := e.GetEndAt(); err == nil {
			out.End = end.In(time.Local).Format("2006-01-02T15:04:05")
		}
		out.Description = propValue(e, ics.ComponentProperty(ics.PropertyDescription))
		if cats := propValue(e, ics.ComponentProperty(ics.PropertyCategories)); cats != "" {
			out.Tags = strings.Split(cats, ",")
		}

		if p.Tag != "" && !containsTag(out.Tags, p.Tag) {
			continue
		}
		events = append(events, out)
	}

	return events, nil
}

// RemoveEvent deletes events matching name and begin time. Returns true when
// at least one event was removed.
func (c *Calendar) RemoveEvent(_ context.Context, name, begin string) (bool, error) {
	target, err := parseWhen(begin)
	if err != nil {
		return false, errors.Wrap(err, "invalid begin time")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load()
	if err != nil {
		return false, err
	}

	removed := false
	kept := cal.Components[:0]
	for _, component := range cal.Components {
		event, isEvent := component.(*ics.VEvent)
		if !isEvent {
			kept = append(kept, component)
			continue
		}
		start, err := event.GetStartAt()
		if err == nil &&
			propValue(event, ics.ComponentProperty(ics.PropertySummary)) == name &&
			start.In(time.Local).Equal(target) {
			removed = true
			continue
		}
		kept = append(kept, component)
	}
	cal.Components = kept

	if !removed {
		return false, nil
	}
	if err := c.save(cal); err != nil {
		return false, err
	}
	return true, nil
}

func propValue(e *ics.VEvent, prop ics.ComponentProperty) string {
	if p := e.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}
