// Package schedule holds the client-side schedule data store: the fetched
// multi-day blob, the derived per-day views and the visit/shift mutations.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinicgrid/internal/events"
	"clinicgrid/internal/grid"
	"clinicgrid/internal/interaction"
	"clinicgrid/internal/model"
)

// API is the part of the schedule API the store depends on.
type API interface {
	GetSchedule(ctx context.Context, from, to string) (model.MultiDayScheduleData, error)
	PutSchedule(ctx context.Context, data model.MultiDayScheduleData) error
	ListCabinets(ctx context.Context) ([]model.CabinetInfo, error)
}

// VisitMover is implemented by clients that can move one visit without a
// whole-blob write.
type VisitMover interface {
	MoveVisit(ctx context.Context, m Move) (model.Visit, error)
	SupportsScopedMove(ctx context.Context) bool
}

// SettingsSource is implemented by clients that can load saved user settings.
type SettingsSource interface {
	GetSettings(ctx context.Context, userID int64) (model.UserSettings, error)
}

// CatalogInvalidator is implemented by clients that cache the catalogue.
type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context) error
}

// Option configures a Store.
type Option func(*Store)

// WithBus makes the store publish schedule changes to bus and refetch when
// another source publishes one. Settings changes for the store's user and
// catalogue changes are picked up as well.
func WithBus(bus *events.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithLogger sets the store logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCabinets seeds the catalogue used when no schedule could be fetched.
func WithCabinets(cabinets []model.CabinetInfo) Option {
	return func(s *Store) { s.cabinets = cabinets }
}

// WithNow overrides the clock used for the initial selected date.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store caches the schedule for the visible date window and derives the
// filtered day views the grid renders.
type Store struct {
	api    API
	bus    *events.Bus
	logger *zerolog.Logger
	now    func() time.Time
	source string

	mu       sync.RWMutex
	data     model.MultiDayScheduleData
	cabinets []model.CabinetInfo
	selected string
	settings model.UserSettings
	search   string
	lastErr  error
	view     []grid.Day // nil when inputs changed since the last derivation

	unsubscribe []func()
}

// NewStore builds a store for userID. Nothing is fetched until Refresh.
func NewStore(api API, userID int64, opts ...Option) *Store {
	s := &Store{
		api:      api,
		now:      time.Now,
		source:   "store-" + uuid.NewString(),
		settings: model.DefaultUserSettings(userID),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		nop := zerolog.Nop()
		s.logger = &nop
	}
	s.selected = model.DateKey(s.now())

	if s.bus != nil {
		s.unsubscribe = []func(){
			s.bus.Subscribe(events.ScheduleChanged, s.onScheduleChanged),
			s.bus.Subscribe(events.SettingsChanged, s.onSettingsChanged),
			s.bus.Subscribe(events.CatalogChanged, s.onCatalogChanged),
		}
	}
	return s
}

// Close detaches the store from the event bus.
func (s *Store) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
}

// Window returns the first and last date key of the visible range.
func (s *Store) Window() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowLocked()
}

func (s *Store) windowLocked() (string, string) {
	to, err := model.AddDays(s.selected, s.settings.DayCount-1)
	if err != nil {
		return s.selected, s.selected
	}
	return s.selected, to
}

// Refresh fetches the visible window. On failure previously fetched data
// stays visible; without any data the store falls back to an empty
// schedule generated from the cabinet catalogue. The fetch error is
// returned in both cases.
func (s *Store) Refresh(ctx context.Context) error {
	from, to := s.Window()

	if cabinets, err := s.api.ListCabinets(ctx); err == nil {
		s.mu.Lock()
		s.cabinets = cabinets
		s.mu.Unlock()
	} else {
		s.logger.Warn().Err(err).Msg("cabinet catalogue fetch failed")
	}

	data, err := s.api.GetSchedule(ctx, from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = fmt.Errorf("fetch schedule %s..%s: %w", from, to, err)
		if len(s.data) == 0 {
			dates, _ := model.DateRange(from, to)
			s.data = EmptySchedule(s.cabinets, dates)
			s.view = nil
		}
		s.logger.Error().Err(err).Str("from", from).Str("to", to).Msg("schedule fetch failed, keeping previous data")
		return s.lastErr
	}

	if s.data == nil {
		s.data = make(model.MultiDayScheduleData, len(data))
	}
	for date, day := range data {
		s.data[date] = day
	}
	s.lastErr = nil
	s.view = nil
	s.logger.Debug().Str("from", from).Str("to", to).Int("days", len(data)).Msg("schedule refreshed")
	return nil
}

// Err returns the error of the last failed Refresh, nil after a success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// SelectDate moves the window start to date (yyyy-MM-dd).
func (s *Store) SelectDate(date string) error {
	if _, err := model.ParseDate(date); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != date {
		s.selected = date
		s.view = nil
	}
	return nil
}

// SelectedDate returns the window start.
func (s *Store) SelectedDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetSettings replaces the user settings; DayCount is clamped to 1..7.
func (s *Store) SetSettings(settings model.UserSettings) {
	settings.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.view = nil
}

// Settings returns the current user settings.
func (s *Store) Settings() model.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSearch sets the free-text visit filter.
func (s *Store) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.search != query {
		s.search = query
		s.view = nil
	}
}

// Missing lists window dates that have not been fetched yet.
func (s *Store) Missing() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to := s.windowLocked()
	dates, _ := model.DateRange(from, to)
	var out []string
	for _, d := range dates {
		if _, ok := s.data[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}

// Day returns the filtered view of the selected date.
func (s *Store) Day() model.ScheduleData {
	days := s.Days()
	if len(days) == 0 {
		return model.ScheduleData{}
	}
	return days[0].Data
}

// Days returns DayCount consecutive filtered days starting at the selected
// date. The result is a copy and can be modified by the caller.
func (s *Store) Days() []grid.Day {
	s.mu.RLock()
	view := s.view
	s.mu.RUnlock()

	if view == nil {
		s.mu.Lock()
		if s.view == nil {
			s.view = s.deriveLocked()
		}
		view = s.view
		s.mu.Unlock()
	}

	out := make([]grid.Day, len(view))
	for i, d := range view {
		out[i] = grid.Day{Date: d.Date, Data: d.Data.Clone()}
	}
	return out
}

func (s *Store) deriveLocked() []grid.Day {
	from, to := s.windowLocked()
	dates, err := model.DateRange(from, to)
	if err != nil {
		return []grid.Day{}
	}

	out := make([]grid.Day, 0, len(dates))
	for _, date := range dates {
		day, ok := s.data[date]
		if !ok {
			day = EmptyDay(s.cabinets)
		}
		day = FilterCabinets(day.Clone(), s.settings.EnabledCabinets)
		day = FilterDoctor(day, s.settings.DoctorFilter)
		day = Search(day, s.search)
		out = append(out, grid.Day{Date: date, Data: day})
	}
	return AlignColumns(out, s.cabinets)
}

// Board returns the geometry and days used to resolve drop targets.
func (s *Store) Board() interaction.Board {
	days := s.Days()
	cabinets := 0
	if len(days) > 0 {
		cabinets = len(days[0].Data.Cabinets)
	}
	return interaction.Board{
		Geometry: grid.GeometryFor(s.Settings(), cabinets),
		Days:     days,
	}
}

// Snapshot returns a deep copy of the cached blob.
func (s *Store) Snapshot() model.MultiDayScheduleData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

func (s *Store) onScheduleChanged(ev events.Event) {
	if ev.Source == s.source {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Str("source", ev.Source).Msg("refetch after external change failed")
	}
}

// LoadSettings replaces the settings with the user's saved ones when the
// API can serve them.
func (s *Store) LoadSettings(ctx context.Context) error {
	src, ok := s.api.(SettingsSource)
	if !ok {
		return nil
	}
	settings, err := src.GetSettings(ctx, s.Settings().UserID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	s.SetSettings(settings)
	return nil
}

func (s *Store) onSettingsChanged(ev events.Event) {
	if ev.Source == s.source || ev.UserID != s.Settings().UserID {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.LoadSettings(ctx); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", ev.UserID).Msg("settings reload failed")
	}
}

func (s *Store) onCatalogChanged(ev events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if inv, ok := s.api.(CatalogInvalidator); ok {
		if err := inv.InvalidateCatalog(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("catalogue cache invalidation failed")
		}
	}
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Str("source", ev.Source).Msg("refetch after catalogue change failed")
	}
}

func (s *Store) publish(dates ...string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:   events.ScheduleChanged,
		Dates:  dates,
		UserID: s.Settings().UserID,
		Source: s.source,
	})
}
