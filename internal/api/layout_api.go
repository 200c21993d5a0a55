package api

import (
	"net/http"
	"strconv"
	"time"

	"clinicgrid/internal/grid"
	"clinicgrid/internal/model"
	"clinicgrid/internal/schedule"
)

type layoutResponse struct {
	Dates      []string         `json:"dates"`
	Rows       []string         `json:"rows"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	HourHeight float64          `json:"hour_height"`
	Columns    int              `json:"cabinets_per_day"`
	Placements []grid.Placement `json:"placements"`

	LongPressMillis    int64   `json:"long_press_ms"`
	LongPressThreshold float64 `json:"long_press_threshold_px"`
}

// handleLayout renders the visible window for a user into absolute blocks.
// GET /api/layout?date=YYYY-MM-DD&user=ID&q=...
func (s *HTTPServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = model.DateKey(time.Now())
	}
	if _, err := model.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	settings := model.DefaultUserSettings(0)
	if raw := q.Get("user"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, http.StatusBadRequest, "user must be a positive integer")
			return
		}
		stored, err := s.db.GetUserSettings(r.Context(), userID)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		settings = *stored
	}
	settings.Normalize()

	last, err := model.AddDays(date, settings.DayCount-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dates, err := model.DateRange(date, last)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := s.loadSchedule(r.Context(), dates)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	days := make([]grid.Day, 0, len(dates))
	for _, d := range dates {
		day := schedule.FilterCabinets(data[d], settings.EnabledCabinets)
		day = schedule.FilterDoctor(day, settings.DoctorFilter)
		day = schedule.Search(day, q.Get("q"))
		days = append(days, grid.Day{Date: d, Data: day})
	}
	catalogue, err := s.db.ListCabinets(r.Context(), true)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	days = schedule.AlignColumns(days, catalogue)

	cabinets := 0
	if len(days) > 0 {
		cabinets = len(days[0].Data.Cabinets)
	}
	geom := grid.GeometryFor(settings, cabinets)
	if s.clinic != nil {
		if clinic := s.clinic(); clinic != nil {
			if geom, err = geom.WithHours(clinic.WorkingHours.Start, clinic.WorkingHours.End); err != nil {
				s.writeFailure(w, err)
				return
			}
			if clinic.WorkingHours.SlotMinutes > 0 {
				geom.SlotMinutes = clinic.WorkingHours.SlotMinutes
			}
		}
	}

	statuses, err := s.db.ListStatuses(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	placements, err := geom.Layout(days, statuses)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		Dates:      dates,
		Rows:       geom.Rows(),
		Width:      geom.Width(),
		Height:     geom.Height(),
		HourHeight: geom.HourHeight,
		Columns:    geom.CabinetsPerDay,
		Placements: placements,

		LongPressMillis:    s.touch.Delay.Milliseconds(),
		LongPressThreshold: s.touch.MoveThreshold,
	})
}
