package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"clinicgrid/internal/model"
)

// MaxSeriesLength caps the number of shifts one recurrence may create.
const MaxSeriesLength = 366

// Occurrences expands an RFC 5545 rule (e.g. "FREQ=WEEKLY;BYDAY=MO,TH")
// into date keys between from and until inclusive.
func Occurrences(rule, from, until string) ([]string, error) {
	start, err := model.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseDate(until)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("series end %s is before start %s", until, from)
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", rule, err)
	}
	r.DTStart(start)

	times := r.Between(start, end.Add(24*time.Hour-time.Second), true)
	if len(times) > MaxSeriesLength {
		return nil, fmt.Errorf("rrule %q yields %d shifts, limit is %d", rule, len(times), MaxSeriesLength)
	}

	out := make([]string, 0, len(times))
	for _, t := range times {
		key := model.DateKey(t)
		if len(out) > 0 && out[len(out)-1] == key {
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

// CreateShiftSeries copies tmpl onto every date the rule produces from
// tmpl.Date through until, in one schedule write.
func (s *Store) CreateShiftSeries(ctx context.Context, cabinetID int64, tmpl model.Shift, rule, until string) ([]model.Shift, error) {
	if err := Validate(tmpl); err != nil {
		return nil, err
	}
	dates, err := Occurrences(rule, tmpl.Date, until)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"rrule": err.Error()}}
	}
	if len(dates) == 0 {
		return nil, nil
	}
	cabinets := s.catalogue()

	created := make([]model.Shift, 0, len(dates))
	err = s.mutate(ctx, "create_shift_series", dates, func(blob model.MultiDayScheduleData) error {
		for _, date := range dates {
			sh := tmpl
			sh.ID = uuid.NewString()
			sh.Date = date
			sh.Visits = []model.Visit{}
			sh.Reserved = append([]model.ReservedTime(nil), tmpl.Reserved...)
			for i := range sh.Reserved {
				sh.Reserved[i].ID = uuid.NewString()
			}
			added, err := AddShift(blob, cabinets, cabinetID, sh)
			if err != nil {
				return err
			}
			created = append(created, added)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
