package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	rs, err := s.reminders.ListForPeriod(r.Context(), ownerFrom(r.Context()), params.Year, params.Month)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(newReminderList(rs)).Write(w)
}

func (s *Server) handleListUndatedReminders(w http.ResponseWriter, r *http.Request) {
	rs, err := s.reminders.ListUndated(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(newReminderList(rs)).Write(w)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	at, err := parseOptionalInstant(req.At)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	var atPtr *time.Time
	if !at.IsZero() {
		atPtr = &at
	}

	saved, err := s.reminders.CreateReminder(r.Context(), core.Reminder{
		OwnerKey:    ownerFrom(r.Context()),
		Description: sanitizeInput(req.Description),
		At:          atPtr,
		LeadTime:    sanitizeInput(req.LeadTime),
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newReminderDTO(saved)).Write(w)
}

// handleUpdateReminder edits the description of an undated reminder; dated
// reminders are rejected with 400.
func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req updateReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.reminders.UpdateUndated(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), sanitizeInput(req.Description))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(newReminderDTO(updated)).Write(w)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.reminders.DeleteReminder(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
