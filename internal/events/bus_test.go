package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	unsubscribe := bus.Subscribe(ScheduleChanged, func(ev Event) { got = append(got, ev) })
	bus.Subscribe(SettingsChanged, func(Event) { t.Error("wrong type delivered") })

	bus.Publish(Event{Type: ScheduleChanged, Dates: []string{"2026-01-15"}})
	assert.Len(t, got, 1)
	assert.Equal(t, []string{"2026-01-15"}, got[0].Dates)
	assert.False(t, got[0].CreatedAt.IsZero())

	unsubscribe()
	bus.Publish(Event{Type: ScheduleChanged})
	assert.Len(t, got, 1)
}
