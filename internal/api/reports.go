package api

import (
	"net/http"

	"github.com/bher20/dormbill/internal/auth"
	"github.com/bher20/dormbill/internal/reports"
	"github.com/bher20/dormbill/internal/storage"
)

// boarderRoom returns the room a boarder token is scoped to. ok is false for
// other callers.
func boarderRoom(r *http.Request) (room string, ok bool) {
	c, found := auth.ClaimsFrom(r.Context())
	if !found || c.Role != auth.RoleBoarder {
		return "", false
	}
	return c.Room, true
}

func (s *server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var sub reports.Submission
	if err := decode(r, &sub); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if room, ok := boarderRoom(r); ok {
		if sub.RoomID == "" {
			sub.RoomID = room
		}
		if room == "" || !auth.CanAccessRoom(r.Context(), sub.RoomID) {
			forbidden(w)
			return
		}
		if sub.Boarder == "" {
			c, _ := auth.ClaimsFrom(r.Context())
			sub.Boarder = c.Subject
		}
	}
	rep, err := s.Reports.Submit(r.Context(), sub)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// handleListReports lists every report, or one room's with ?room=. Boarders
// only ever see their own room.
func (s *server) handleListReports(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if room, ok := boarderRoom(r); ok {
		if roomID == "" {
			roomID = room
		}
		if room == "" || !auth.CanAccessRoom(r.Context(), roomID) {
			forbidden(w)
			return
		}
	}
	list, err := s.Reports.List(r.Context(), roomID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []storage.Report{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !auth.CanAccessRoom(r.Context(), rep.RoomID) {
		forbidden(w)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type decideRequest struct {
	Status string `json:"status"`
}

func (s *server) handleDecideReport(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	rep, err := s.Reports.Decide(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.Reports.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
