package interaction

import (
	"math"
	"sync"
	"time"

	"clinicgrid/internal/grid"
)

const (
	DefaultLongPressDelay     = 500 * time.Millisecond
	DefaultLongPressThreshold = 10.0 // px
)

// Gesture is the outcome of a touch sequence.
type Gesture string

const (
	GestureNone      Gesture = "none"
	GesturePending   Gesture = "pending"
	GestureScroll    Gesture = "scroll"
	GestureTap       Gesture = "tap"
	GestureLongPress Gesture = "long_press"
)

// Timer is the part of *time.Timer the detector needs.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the timer-vs-movement race is testable.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// LongPressConfig configures the detector.
type LongPressConfig struct {
	Delay         time.Duration
	MoveThreshold float64
}

// LongPressDetector distinguishes a stationary long-press from a pan on a
// single touch pointer. Whichever comes first wins: the timer firing opens
// the context menu, moving past the threshold makes it a scroll.
type LongPressDetector struct {
	mu          sync.Mutex
	cfg         LongPressConfig
	clock       Clock
	onLongPress func(at grid.Point)

	gesture   Gesture
	start     grid.Point
	last      grid.Point
	startedAt time.Time
	timer     Timer
	gen       uint64
}

// NewLongPressDetector builds a detector. onLongPress runs on the timer's
// goroutine with the last known touch point.
func NewLongPressDetector(cfg LongPressConfig, clock Clock, onLongPress func(at grid.Point)) *LongPressDetector {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultLongPressDelay
	}
	if cfg.MoveThreshold <= 0 {
		cfg.MoveThreshold = DefaultLongPressThreshold
	}
	if clock == nil {
		clock = SystemClock
	}
	return &LongPressDetector{
		cfg:         cfg,
		clock:       clock,
		onLongPress: onLongPress,
		gesture:     GestureNone,
	}
}

// Gesture returns the classification of the current or last touch.
func (d *LongPressDetector) Gesture() Gesture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gesture
}

// TouchStart records the start point and arms the timer. A new touch
// replaces any sequence still in flight.
func (d *LongPressDetector) TouchStart(p grid.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopTimer()
	d.gen++
	gen := d.gen
	d.start, d.last = p, p
	d.startedAt = d.clock.Now()
	d.gesture = GesturePending
	d.timer = d.clock.AfterFunc(d.cfg.Delay, func() { d.fire(gen) })
}

// TouchMove tracks the pointer; leaving the threshold radius before the
// timer fires turns the sequence into a scroll.
func (d *LongPressDetector) TouchMove(p grid.Point) Gesture {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = p
	if d.gesture != GesturePending {
		return d.gesture
	}
	if math.Hypot(p.X-d.start.X, p.Y-d.start.Y) > d.cfg.MoveThreshold {
		d.stopTimer()
		d.gesture = GestureScroll
	}
	return d.gesture
}

// TouchEnd finishes the sequence. Lifting before the timer is a tap.
func (d *LongPressDetector) TouchEnd() Gesture {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gesture == GesturePending {
		d.stopTimer()
		d.gesture = GestureTap
	}
	return d.gesture
}

// Cancel drops the active sequence without classifying it.
func (d *LongPressDetector) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimer()
	d.gen++
	d.gesture = GestureNone
}

// Held returns how long the current touch has been down.
func (d *LongPressDetector) Held() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startedAt.IsZero() {
		return 0
	}
	return d.clock.Now().Sub(d.startedAt)
}

func (d *LongPressDetector) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.gesture != GesturePending {
		d.mu.Unlock()
		return
	}
	d.gesture = GestureLongPress
	d.timer = nil
	at := d.last
	cb := d.onLongPress
	d.mu.Unlock()

	if cb != nil {
		cb(at)
	}
}

func (d *LongPressDetector) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
