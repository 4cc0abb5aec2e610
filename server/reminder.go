package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/ai/tools/calendar"
	"github.com/einlabs/ein/store"
)

const (
	reminderInterval  = time.Minute
	reminderLookahead = time.Hour
)

// Reminder is one upcoming-event notification.
type Reminder struct {
	Event calendar.Event
	At    time.Time
}

// ReminderScheduler sweeps the calendar once a minute and fires the notify
// callback for events starting within the lookahead window. Fired events
// are recorded in structured memory so restarts do not re-notify.
type ReminderScheduler struct {
	cal    *calendar.Calendar
	seen   store.StructuredMemory
	notify func(Reminder)
	now    func() time.Time
}

func NewReminderScheduler(cal *calendar.Calendar, seen store.StructuredMemory, notify func(Reminder)) *ReminderScheduler {
	return &ReminderScheduler{
		cal:    cal,
		seen:   seen,
		notify: notify,
		now:    time.Now,
	}
}

// Run blocks until the context is done.
func (s *ReminderScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(reminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if fired := s.sweep(ctx); len(fired) > 0 {
				slog.Info("reminders fired", "count", len(fired))
			}
		}
	}
}

// sweep fires reminders for events beginning within the lookahead window
// that have not been notified before.
func (s *ReminderScheduler) sweep(ctx context.Context) []Reminder {
	now := s.now()
	windowEnd := now.Add(reminderLookahead)

	events, err := s.cal.ListEvents(ctx, tools.ListEventsParams{
		Start: now.Format("2006-01-02"),
		End:   windowEnd.Format("2006-01-02"),
	})
	if err != nil {
		slog.Warn("reminder sweep failed to list events", "error", err)
		return nil
	}

	seen, err := s.seen.Load(ctx)
	if err != nil {
		seen = map[string]any{}
	}

	var fired []Reminder
	dirty := false
	for _, event := range events {
		begin, ok := parseEventBegin(event.Begin)
		if !ok {
			continue
		}
		if begin.Before(now) || begin.After(windowEnd) {
			continue
		}
		key := fmt.Sprintf("reminded:%s|%s", event.Name, event.Begin)
		if _, done := seen[key]; done {
			continue
		}

		reminder := Reminder{Event: event, At: begin}
		if s.notify != nil {
			s.notify(reminder)
		}
		fired = append(fired, reminder)
		seen[key] = now.Unix()
		dirty = true
	}

	if dirty {
		if err := s.seen.Save(ctx, seen); err != nil {
			slog.Warn("reminder sweep failed to persist state", "error", err)
		}
	}
	return fired
}

func parseEventBegin(begin string) (time.Time, bool) {
	layouts := []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02", time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, begin, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
