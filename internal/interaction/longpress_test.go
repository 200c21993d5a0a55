package interaction

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clinicgrid/internal/grid"
)

// fakeClock fires AfterFunc callbacks synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type pressRecorder struct {
	mu     sync.Mutex
	points []grid.Point
}

func (r *pressRecorder) record(p grid.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, p)
}

func (r *pressRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}

func newDetector(clock Clock, rec *pressRecorder) *LongPressDetector {
	return NewLongPressDetector(LongPressConfig{Delay: 500 * time.Millisecond, MoveThreshold: 10}, clock, rec.record)
}

func TestLongPress_StationaryOpensMenu(t *testing.T) {
	clock := newFakeClock()
	rec := &pressRecorder{}
	d := newDetector(clock, rec)

	d.TouchStart(grid.Point{X: 100, Y: 200})
	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, GesturePending, d.TouchMove(grid.Point{X: 104, Y: 203})) // 5px, within threshold
	clock.Advance(300 * time.Millisecond)

	assert.Equal(t, GestureLongPress, d.Gesture())
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, grid.Point{X: 104, Y: 203}, rec.points[0])
	assert.Equal(t, GestureLongPress, d.TouchEnd())
}

func TestLongPress_MovementBeforeTimerIsScroll(t *testing.T) {
	clock := newFakeClock()
	rec := &pressRecorder{}
	d := newDetector(clock, rec)

	d.TouchStart(grid.Point{X: 100, Y: 200})
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, GestureScroll, d.TouchMove(grid.Point{X: 100, Y: 215}))
	clock.Advance(time.Second)

	assert.Equal(t, GestureScroll, d.Gesture())
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, GestureScroll, d.TouchEnd())
}

func TestLongPress_DiagonalThreshold(t *testing.T) {
	clock := newFakeClock()
	rec := &pressRecorder{}
	d := newDetector(clock, rec)

	d.TouchStart(grid.Point{X: 0, Y: 0})
	// 7,7 is ~9.9px away, still a press
	assert.Equal(t, GesturePending, d.TouchMove(grid.Point{X: 7, Y: 7}))
	// 8,8 is ~11.3px away
	assert.Equal(t, GestureScroll, d.TouchMove(grid.Point{X: 8, Y: 8}))
}

func TestLongPress_EarlyReleaseIsTap(t *testing.T) {
	clock := newFakeClock()
	rec := &pressRecorder{}
	d := newDetector(clock, rec)

	d.TouchStart(grid.Point{X: 10, Y: 10})
	clock.Advance(120 * time.Millisecond)
	assert.Equal(t, 120*time.Millisecond, d.Held())
	assert.Equal(t, GestureTap, d.TouchEnd())

	clock.Advance(time.Second)
	assert.Equal(t, 0, rec.count())
}

func TestLongPress_MoveAfterFireIgnored(t *testing.T) {
	clock := newFakeClock()
	rec := &pressRecorder{}
	d := newDetector(clock, rec)

	d.TouchStart(grid.Point{X: 10, Y: 10})
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, GestureLongPress, d.TouchMove(grid.Point{X: 200, Y: 200}))
	assert.Equal(t, 1, rec.count())
}

func TestLongPress_NewTouchResetsSequence(t *testing.T) {
	clock := newFakeClock()
	rec := &pressRecorder{}
	d := newDetector(clock, rec)

	d.TouchStart(grid.Point{X: 10, Y: 10})
	clock.Advance(400 * time.Millisecond)
	d.TouchStart(grid.Point{X: 50, Y: 50})
	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "first timer must not fire for the replaced touch")

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, grid.Point{X: 50, Y: 50}, rec.points[0])
}

func TestLongPress_Cancel(t *testing.T) {
	clock := newFakeClock()
	rec := &pressRecorder{}
	d := newDetector(clock, rec)

	d.TouchStart(grid.Point{X: 10, Y: 10})
	d.Cancel()
	clock.Advance(time.Second)
	assert.Equal(t, GestureNone, d.Gesture())
	assert.Equal(t, 0, rec.count())
}

func TestLongPress_SystemClock(t *testing.T) {
	fired := make(chan grid.Point, 1)
	d := NewLongPressDetector(LongPressConfig{Delay: 20 * time.Millisecond}, nil, func(p grid.Point) {
		fired <- p
	})

	d.TouchStart(grid.Point{X: 1, Y: 2})
	select {
	case p := <-fired:
		assert.Equal(t, grid.Point{X: 1, Y: 2}, p)
	case <-time.After(2 * time.Second):
		t.Fatal("long-press did not fire")
	}
}

func TestContextMenu_ClampsToViewport(t *testing.T) {
	menu := NewContextMenu(grid.Size{Width: 800, Height: 600}, grid.Size{Width: 200, Height: 150})

	st := menu.OpenForVisit(grid.Point{X: 700, Y: 100}, "v1")
	assert.True(t, st.Open)
	assert.Equal(t, grid.Point{X: 500, Y: 100}, st.Position)
	assert.Equal(t, "v1", st.VisitID)
	assert.Contains(t, st.Actions, ActionDelete)

	st = menu.OpenForCell(grid.Point{X: 10, Y: 590}, Target{Date: "2026-01-15", CabinetID: 1})
	assert.Equal(t, grid.Point{X: 10, Y: 440}, st.Position)
	assert.Equal(t, int64(1), st.Target.CabinetID)

	menu.Close()
	assert.False(t, menu.State().Open)
}
