package api

import (
	"context"
	"fmt"
	"net/http"

	"clinicgrid/internal/events"
	"clinicgrid/internal/export"
	"clinicgrid/internal/metrics"
	"clinicgrid/internal/model"
	"clinicgrid/internal/schedule"
)

// dateRange validates the from/to query parameters.
func dateRange(r *http.Request) ([]string, error) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" {
		return nil, fmt.Errorf("from is required")
	}
	if to == "" {
		to = from
	}
	dates, err := model.DateRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("invalid range; expected from <= to in YYYY-MM-DD: %w", err)
	}
	if len(dates) > MaxRangeDays {
		return nil, fmt.Errorf("date range exceeds maximum of %d days", MaxRangeDays)
	}
	return dates, nil
}

// loadSchedule reads the dates and generates empty days from the active
// cabinets for dates never written.
func (s *HTTPServer) loadSchedule(ctx context.Context, dates []string) (model.MultiDayScheduleData, error) {
	data, err := s.db.GetSchedule(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, err
	}
	var cabinets []model.CabinetInfo
	for _, d := range dates {
		if _, ok := data[d]; ok {
			continue
		}
		if cabinets == nil {
			if cabinets, err = s.db.ListCabinets(ctx, false); err != nil {
				return nil, err
			}
		}
		data[d] = schedule.EmptyDay(cabinets)
	}
	return data, nil
}

// handleGetSchedule returns the multi-day blob keyed by date.
// GET /api/schedule?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := s.loadSchedule(r.Context(), dates)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// handlePutSchedule replaces every day in the body.
// PUT /api/schedule
func (s *HTTPServer) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	var data model.MultiDayScheduleData
	if err := decodeJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "schedule is empty")
		return
	}
	dates := make([]string, 0, len(data))
	for date := range data {
		if _, err := model.ParseDate(date); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date key %q; expected YYYY-MM-DD", date))
			return
		}
		dates = append(dates, date)
	}

	if err := s.db.PutSchedule(r.Context(), data); err != nil {
		s.writeFailure(w, err)
		return
	}
	metrics.IncScheduleWrite()
	s.bus.Publish(events.Event{Type: events.ScheduleChanged, Dates: dates, Source: "api"})
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveVisit moves one visit without rewriting the whole blob.
// PATCH /api/visits/{id}
func (s *HTTPServer) handleMoveVisit(w http.ResponseWriter, r *http.Request) {
	var m schedule.Move
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := r.PathValue("id")
	if m.VisitID == "" {
		m.VisitID = id
	}
	if m.VisitID != id {
		writeError(w, http.StatusBadRequest, "visit_id does not match the path")
		return
	}
	if err := schedule.Validate(m); err != nil {
		s.writeFailure(w, err)
		return
	}

	moved, err := s.db.MoveVisit(r.Context(), m)
	metrics.IncVisitMutation("move_visit", err)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.logger.Info().
		Str("visit_id", m.VisitID).
		Str("to_date", m.ToDate).
		Int64("to_cabinet", m.ToCabinetID).
		Str("start", m.StartTime).
		Msg("visit moved")
	s.bus.Publish(events.Event{Type: events.ScheduleChanged, Dates: []string{m.FromDate, m.ToDate}, Source: "api"})
	writeJSON(w, http.StatusOK, moved)
}

// handleExport streams the range as an XLSX workbook.
// GET /api/schedule/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := s.db.GetSchedule(r.Context(), dates[0], dates[len(dates)-1])
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	statuses, err := s.db.ListStatuses(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="schedule_%s_%s.xlsx"`, dates[0], dates[len(dates)-1]))
	if err := export.WriteSchedule(w, data, statuses); err != nil {
		s.logger.Error().Err(err).Msg("schedule export failed")
	}
}
