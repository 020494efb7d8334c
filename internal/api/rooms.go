package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bher20/dormbill/internal/storage"
)

func (s *server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.Store.ListRooms(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []storage.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *server) handlePutRoom(w http.ResponseWriter, r *http.Request) {
	var room storage.Room
	if err := decode(r, &room); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	room.ID = r.PathValue("id")
	if room.Capacity < 0 {
		badRequest(w, "capacity must not be negative")
		return
	}
	if existing, err := s.Store.GetRoom(r.Context(), room.ID); err != nil {
		s.writeError(w, r, err)
		return
	} else if existing != nil {
		room.CreatedAt = existing.CreatedAt
	}
	if err := s.Store.UpsertRoom(r.Context(), room); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Log.Info("room saved", zap.String("room_id", room.ID))
	writeJSON(w, http.StatusOK, room)
}

// handleDeleteRoom refuses to drop a room that still has boarders assigned.
func (s *server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	occupants, err := s.Store.ListBoardersByRoom(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(occupants) > 0 {
		writeJSON(w, http.StatusConflict, errorBody{Error: "room still has boarders assigned"})
		return
	}
	if err := s.Store.DeleteRoom(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Log.Info("room deleted", zap.String("room_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleListBoarders(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.ListBoarders(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []storage.Boarder{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleRoomBoarders(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	room, err := s.Store.GetRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if room == nil {
		s.writeError(w, r, storage.ErrNotFound)
		return
	}
	list, err := s.Store.ListBoardersByRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []storage.Boarder{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handlePutBoarder(w http.ResponseWriter, r *http.Request) {
	var b storage.Boarder
	if err := decode(r, &b); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	b.ID = r.PathValue("id")
	if strings.TrimSpace(b.Name) == "" {
		badRequest(w, "name is required")
		return
	}
	if b.DaysOccupied < 0 {
		badRequest(w, "days_occupied must not be negative")
		return
	}
	if b.RoomID != "" {
		room, err := s.Store.GetRoom(r.Context(), b.RoomID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if room == nil {
			s.writeError(w, r, storage.ErrNotFound)
			return
		}
	}
	if err := s.Store.UpsertBoarder(r.Context(), b); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type assignRoomRequest struct {
	RoomID string `json:"room_id"`
}

func (s *server) handleAssignRoom(w http.ResponseWriter, r *http.Request) {
	var req assignRoomRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.RoomID) == "" {
		badRequest(w, "room_id is required")
		return
	}
	id := r.PathValue("id")
	if err := s.Store.AssignRoom(r.Context(), id, req.RoomID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Log.Info("boarder moved", zap.String("boarder_id", id), zap.String("room_id", req.RoomID))
	b, err := s.Store.GetBoarder(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
