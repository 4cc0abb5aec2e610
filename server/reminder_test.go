package server

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

type seenDoc struct {
	mu   sync.Mutex
	data map[string]any
}

func (d *seenDoc) Load(_ context.Context) (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data == nil {
		return map[string]any{}, nil
	}
	return d.data, nil
}

func (d *seenDoc) Save(_ context.Context, data map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = data
	return nil
}

var _ store.StructuredMemory = (*seenDoc)(nil)

func newReminderFixture(t *testing.T, now time.Time) (*ReminderScheduler, *calendar.Calendar, *[]Reminder) {
	t.Helper()
	cal := calendar.New(filepath.Join(t.TempDir(), "cal.ics"))

	var fired []Reminder
	s := NewReminderScheduler(cal, &seenDoc{}, func(r Reminder) {
		fired = append(fired, r)
	})
	s.now = func() time.Time { return now }
	return s, cal, &fired
}

func TestReminderSweepFiresUpcomingEvent(t *testing.T) {
	now := time.Date(2026, 1, 28, 9, 45, 0, 0, time.Local)
	s, cal, fired := newReminderFixture(t, now)

	_, err := cal.AddEvent(context.Background(), tools.AddEventParams{
		Name:  "Dentist",
		Begin: "2026-01-28T10:30:00",
	})
	require.NoError(t, err)

	swept := s.sweep(context.Background())
	require.Len(t, swept, 1)
	assert.Equal(t, "Dentist", swept[0].Event.Name)
	require.Len(t, *fired, 1)
}

func TestReminderSweepIgnoresOutsideWindow(t *testing.T) {
	now := time.Date(2026, 1, 28, 9, 0, 0, 0, time.Local)
	s, cal, fired := newReminderFixture(t, now)

	// Already started.
	_, err := cal.AddEvent(context.Background(), tools.AddEventParams{
		Name: "Standup", Begin: "2026-01-28T08:30:00",
	})
	require.NoError(t, err)
	// Too far out.
	_, err = cal.AddEvent(context.Background(), tools.AddEventParams{
		Name: "Lunch", Begin: "2026-01-28T12:30:00",
	})
	require.NoError(t, err)

	swept := s.sweep(context.Background())
	assert.Empty(t, swept)
	assert.Empty(t, *fired)
}

func TestReminderSweepDedupes(t *testing.T) {
	now := time.Date(2026, 1, 28, 9, 45, 0, 0, time.Local)
	s, cal, fired := newReminderFixture(t, now)

	_, err := cal.AddEvent(context.Background(), tools.AddEventParams{
		Name: "Dentist", Begin: "2026-01-28T10:30:00",
	})
	require.NoError(t, err)

	require.Len(t, s.sweep(context.Background()), 1)
	assert.Empty(t, s.sweep(context.Background()))
	assert.Len(t, *fired, 1)
}
