package api

import (
	"errors"
	"net/http"
	"strconv"

	"clinicgrid/internal/events"
	"clinicgrid/internal/model"
	"clinicgrid/internal/schedule"
)

const defaultPatientLimit = 50

func (s *HTTPServer) handleListCabinets(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("all") == "true"
	cabinets, err := s.db.ListCabinets(r.Context(), includeInactive)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cabinets": cabinets})
}

func (s *HTTPServer) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := s.db.ListDoctors(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

func (s *HTTPServer) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.db.ListStatuses(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}

// handleListPatients searches patients by name or phone.
// GET /api/patients?q=...&limit=N
func (s *HTTPServer) handleListPatients(w http.ResponseWriter, r *http.Request) {
	limit := defaultPatientLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	patients, err := s.db.ListPatients(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": patients})
}

// handleCreatePatient stores a new patient and returns it with its ID.
// POST /api/patients
func (s *HTTPServer) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var p model.Patient
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := schedule.Validate(p); err != nil {
		s.writeFailure(w, err)
		return
	}
	if err := s.db.CreatePatient(r.Context(), &p); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.bus.Publish(events.Event{Type: events.CatalogChanged, Source: "api"})
	writeJSON(w, http.StatusCreated, p)
}

func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("user id must be a positive integer")
	}
	return id, nil
}

// GET /api/settings/{userID}
func (s *HTTPServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := s.db.GetUserSettings(r.Context(), userID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PUT /api/settings/{userID}
func (s *HTTPServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var settings model.UserSettings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if settings.UserID != 0 && settings.UserID != userID {
		writeError(w, http.StatusBadRequest, "user_id does not match the path")
		return
	}
	settings.UserID = userID
	if err := schedule.Validate(settings); err != nil {
		s.writeFailure(w, err)
		return
	}
	if err := s.db.UpsertUserSettings(r.Context(), &settings); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.bus.Publish(events.Event{Type: events.SettingsChanged, UserID: userID, Source: "api"})
	writeJSON(w, http.StatusOK, settings)
}
