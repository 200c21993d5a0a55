package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"clinicgrid/internal/interaction"
	"clinicgrid/internal/metrics"
	"clinicgrid/internal/model"
)

// MoveFrom converts a drop produced by the drag tracker into a Move.
func MoveFrom(cmd interaction.MoveCommand) Move {
	return Move{
		VisitID:     cmd.VisitID,
		FromDate:    cmd.FromDate,
		ToDate:      cmd.ToDate,
		ToCabinetID: cmd.ToCabinetID,
		StartTime:   cmd.StartTime,
		EndTime:     cmd.EndTime,
	}
}

// CreateVisit validates v and appends it to the referenced shift.
func (s *Store) CreateVisit(ctx context.Context, ref ShiftRef, v model.Visit) (model.Visit, error) {
	v.Date = ref.Date
	if v.Status == "" {
		v.Status = model.StatusScheduled
	}
	if err := mergeValidation(Validate(ref), ValidateVisit(v)); err != nil {
		return model.Visit{}, err
	}
	v.ID = uuid.NewString()

	var created model.Visit
	err := s.mutate(ctx, "create_visit", []string{ref.Date}, func(blob model.MultiDayScheduleData) error {
		var err error
		created, err = AddVisit(blob, ref, v)
		return err
	})
	return created, err
}

// UpdateVisit replaces the visit with the same ID on v.Date.
func (s *Store) UpdateVisit(ctx context.Context, v model.Visit) (model.Visit, error) {
	if v.ID == "" {
		return model.Visit{}, &ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	if v.Date == "" {
		return model.Visit{}, &ValidationError{Fields: map[string]string{"date": "is required"}}
	}
	if err := ValidateVisit(v); err != nil {
		return model.Visit{}, err
	}

	var updated model.Visit
	err := s.mutate(ctx, "update_visit", []string{v.Date}, func(blob model.MultiDayScheduleData) error {
		var err error
		updated, err = ReplaceVisit(blob, v)
		return err
	})
	return updated, err
}

// DeleteVisit removes a visit; its shift is kept.
func (s *Store) DeleteVisit(ctx context.Context, date, visitID string) error {
	return s.mutate(ctx, "delete_visit", []string{date}, func(blob model.MultiDayScheduleData) error {
		_, err := RemoveVisit(blob, date, visitID)
		return err
	})
}

// MoveVisit relocates a visit. Clients that support the scoped move
// endpoint get a single PATCH; others a read-modify-write of the blob.
func (s *Store) MoveVisit(ctx context.Context, m Move) (model.Visit, error) {
	if err := Validate(m); err != nil {
		return model.Visit{}, err
	}

	if mover, ok := s.api.(VisitMover); ok && mover.SupportsScopedMove(ctx) {
		moved, err := mover.MoveVisit(ctx, m)
		metrics.IncVisitMutation("move_visit", err)
		if err != nil {
			return model.Visit{}, fmt.Errorf("move visit %s: %w", m.VisitID, err)
		}
		s.afterWrite(ctx, m.FromDate, m.ToDate)
		return moved, nil
	}

	var moved model.Visit
	err := s.mutate(ctx, "move_visit", []string{m.FromDate, m.ToDate}, func(blob model.MultiDayScheduleData) error {
		var err error
		moved, err = ApplyMove(blob, m)
		return err
	})
	return moved, err
}

// CreateShift adds a shift to a cabinet. A missing day is generated from
// the cabinet catalogue.
func (s *Store) CreateShift(ctx context.Context, cabinetID int64, sh model.Shift) (model.Shift, error) {
	if err := Validate(sh); err != nil {
		return model.Shift{}, err
	}
	sh.ID = uuid.NewString()
	sh.Visits = []model.Visit{}
	cabinets := s.catalogue()

	var created model.Shift
	err := s.mutate(ctx, "create_shift", []string{sh.Date}, func(blob model.MultiDayScheduleData) error {
		var err error
		created, err = AddShift(blob, cabinets, cabinetID, sh)
		return err
	})
	return created, err
}

// DeleteShift removes a shift together with its visits.
func (s *Store) DeleteShift(ctx context.Context, ref ShiftRef) error {
	if err := Validate(ref); err != nil {
		return err
	}
	return s.mutate(ctx, "delete_shift", []string{ref.Date}, func(blob model.MultiDayScheduleData) error {
		_, err := RemoveShift(blob, ref)
		return err
	})
}

// AddReservedTime blocks part of a shift for non-patient use.
func (s *Store) AddReservedTime(ctx context.Context, ref ShiftRef, r model.ReservedTime) (model.ReservedTime, error) {
	if err := mergeValidation(Validate(ref), Validate(r)); err != nil {
		return model.ReservedTime{}, err
	}
	r.ID = uuid.NewString()

	var added model.ReservedTime
	err := s.mutate(ctx, "add_reserved", []string{ref.Date}, func(blob model.MultiDayScheduleData) error {
		var err error
		added, err = AddReserved(blob, ref, r)
		return err
	})
	return added, err
}

// mutate fetches the dates, applies fn and writes the fetched blob back.
// Nothing is written when fn fails.
func (s *Store) mutate(ctx context.Context, op string, dates []string, fn func(model.MultiDayScheduleData) error) (err error) {
	defer func() { metrics.IncVisitMutation(op, err) }()

	from, to := span(dates)
	blob, err := s.api.GetSchedule(ctx, from, to)
	if err != nil {
		return fmt.Errorf("%s: fetch schedule: %w", op, err)
	}
	if blob == nil {
		blob = model.MultiDayScheduleData{}
	}

	if err = fn(blob); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Msg("schedule mutation rejected")
		return err
	}

	if err = s.api.PutSchedule(ctx, blob); err != nil {
		return fmt.Errorf("%s: write schedule: %w", op, err)
	}
	metrics.IncScheduleWrite()
	s.logger.Info().Str("op", op).Strs("dates", dates).Msg("schedule updated")

	s.afterWrite(ctx, dates...)
	return nil
}

func (s *Store) afterWrite(ctx context.Context, dates ...string) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("refetch after write failed")
	}
	s.publish(dates...)
}

func (s *Store) catalogue() []model.CabinetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CabinetInfo(nil), s.cabinets...)
}

// span returns the smallest and largest date key.
func span(dates []string) (string, string) {
	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)
	return sorted[0], sorted[len(sorted)-1]
}

func mergeValidation(errs ...error) error {
	var verr *ValidationError
	merged := &ValidationError{Fields: map[string]string{}}
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.As(err, &verr) {
			return err
		}
		for f, msg := range verr.Fields {
			merged.Fields[f] = msg
		}
	}
	if len(merged.Fields) == 0 {
		return nil
	}
	return merged
}
