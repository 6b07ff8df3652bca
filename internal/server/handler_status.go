package server

import (
	"net/http"

	"github.com/me/prodigy/internal/query"
)

// handleStatus serves the query façade: every entry, or ?id= for one.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c := s.app.Container()
	if c == nil || c.Scheduler == nil {
		http.Error(w, "scheduler not initialized", http.StatusInternalServerError)
		return
	}

	var id *string
	if q := r.URL.Query(); q.Has("id") {
		v := q.Get("id")
		id = &v
	}

	resp := query.New(c.Scheduler, s.baseLog).Handle(r.Context(), id)
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}
