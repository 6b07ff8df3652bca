package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/me/prodigy/internal/scheduler"
	"github.com/me/prodigy/pkg/model"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// currentScheduler returns the current Scheduler, writing a 503 when none is wired.
func (s *Server) currentScheduler(w http.ResponseWriter, reqID string) *scheduler.Scheduler {
	c := s.app.Container()
	if c == nil || c.Scheduler == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
			Code:    model.ErrUnavailable,
			Message: "scheduler not initialized",
		})
		return nil
	}
	return c.Scheduler
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	sched := s.currentScheduler(w, reqID)
	if sched == nil {
		return
	}
	id, err := sched.Create(r.Context(), req.PayloadRef)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	e, err := sched.Get(r.Context(), id)
	if err != nil {
		respondSchedulerError(w, reqID, id, err)
		return
	}
	respondCreated(w, reqID, e)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	q := r.URL.Query()

	limit, offset, apiErr := parsePage(q.Get("limit"), q.Get("offset"))
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	sched := s.currentScheduler(w, reqID)
	if sched == nil {
		return
	}

	var (
		entries []model.Entry
		err     error
	)
	if raw := q.Get("status"); raw != "" {
		status, perr := model.ParseEntryStatus(raw)
		if perr != nil {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid query parameter",
					model.FieldError{Field: "status", Message: perr.Error()}))
			return
		}
		entries, err = sched.ListByStatus(r.Context(), status)
	} else {
		entries, err = sched.List(r.Context())
	}
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	total := len(entries)
	start := min(offset, total)
	end := min(start+limit, total)

	respondList(w, reqID, entries[start:end], &model.Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	})
}

func parsePage(rawLimit, rawOffset string) (limit, offset int, apiErr *model.APIError) {
	limit = defaultListLimit
	var details []model.FieldError
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < 1 {
			details = append(details, model.FieldError{Field: "limit", Message: "limit must be a positive integer"})
		} else {
			limit = min(n, maxListLimit)
		}
	}
	if rawOffset != "" {
		n, err := strconv.Atoi(rawOffset)
		if err != nil || n < 0 {
			details = append(details, model.FieldError{Field: "offset", Message: "offset must be a non-negative integer"})
		} else {
			offset = n
		}
	}
	if len(details) > 0 {
		return 0, 0, model.NewValidationError("invalid query parameter", details...)
	}
	return limit, offset, nil
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	sched := s.currentScheduler(w, reqID)
	if sched == nil {
		return
	}
	e, err := sched.Get(r.Context(), id)
	if err != nil {
		respondSchedulerError(w, reqID, id, err)
		return
	}
	respondOK(w, reqID, e)
}

func (s *Server) handleAdvanceEntry(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req model.AdvanceEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.Status == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "status", Message: "status is required"}))
		return
	}
	next, err := model.ParseEntryStatus(req.Status)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid status",
				model.FieldError{Field: "status", Message: err.Error()}))
		return
	}

	sched := s.currentScheduler(w, reqID)
	if sched == nil {
		return
	}
	e, err := sched.Advance(r.Context(), id, next, model.Outcome{Result: req.Result, Error: req.Error})
	if err != nil {
		respondSchedulerError(w, reqID, id, err)
		return
	}
	respondOK(w, reqID, e)
}

func (s *Server) handleCancelEntry(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	sched := s.currentScheduler(w, reqID)
	if sched == nil {
		return
	}
	e, err := sched.Cancel(r.Context(), id)
	if err != nil {
		respondSchedulerError(w, reqID, id, err)
		return
	}
	s.logger.Info("entry cancelled", "entry_id", id)
	respondOK(w, reqID, e)
}
