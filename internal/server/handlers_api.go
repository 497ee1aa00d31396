package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"gamenight/internal/identity"
	"gamenight/internal/room"
)

type identityRequest struct {
	DisplayName string `json:"display_name"`
}

type createRoomRequest struct {
	RoomName string `json:"room_name"`
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type optionPayload struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}

type startPollRequest struct {
	Kind     string          `json:"kind"`
	Question string          `json:"question"`
	Options  []optionPayload `json:"options"`
}

type castVoteRequest struct {
	OptionID string `json:"option_id"`
}

type startWheelRequest struct {
	Kind    string          `json:"kind"`
	Options []optionPayload `json:"options"`
}

func (s *Server) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateName(req.DisplayName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, token, err := s.identity.Issue(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sessions.SetGuestToken(w, r, token)
	log.Printf("identity issued player_id=%s", id.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"player_id":    id.ID,
		"display_name": id.DisplayName,
		"token":        token,
	})
}

// handleSession answers "who am I and where was I": the resumption endpoint a
// returning browser calls before deciding whether to rejoin its room.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"player_id":      nil,
		"display_name":   nil,
		"active_room_id": nil,
	}
	if id, err := s.currentIdentity(w, r); err == nil {
		payload["player_id"] = id.ID
		payload["display_name"] = id.DisplayName
	}
	if roomID := s.sessions.ActiveRoom(w, r); roomID != "" {
		if _, err := s.store.Get(roomID); err == nil {
			payload["active_room_id"] = roomID
		} else {
			s.sessions.ClearActiveRoom(w, r)
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req createRoomRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := readJSON(r.Body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	roomName, err := validateRoomName(req.RoomName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created := s.store.Create(id.ID, id.DisplayName, roomName)
	s.sessions.SetActiveRoom(w, r, created.ID)
	log.Printf("room created room_id=%s code=%s host_id=%s", created.ID, created.Code, id.ID)
	s.afterRoomUpdate(created, "room_created", EventPayload{
		RoomID:   created.ID,
		Code:     created.Code,
		PlayerID: id.ID,
		HostID:   id.ID,
	})
	writeJSON(w, http.StatusCreated, snapshot(created))
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req joinRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	target, err := s.store.FindByCode(code)
	if err != nil {
		restored, ok := s.restoreFromMirror(strings.ToUpper(code))
		if !ok {
			writeError(w, http.StatusNotFound, "room unavailable")
			return
		}
		target = restored
	}
	updated, err := s.store.Join(target.ID, id.ID, id.DisplayName)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	s.sessions.SetActiveRoom(w, r, updated.ID)
	log.Printf("player joined room_id=%s player_id=%s", updated.ID, id.ID)
	s.afterRoomUpdate(updated, "player_joined", EventPayload{
		RoomID:     updated.ID,
		PlayerID:   id.ID,
		PlayerName: id.DisplayName,
	})
	writeJSON(w, http.StatusOK, snapshot(updated))
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	roomID, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodGet {
		switch action {
		case "":
			s.handleGetRoom(w, r, roomID)
		case "qr":
			s.handleRoomQR(w, r, roomID)
		default:
			http.NotFound(w, r)
		}
		return
	}
	switch action {
	case "leave":
		s.handleLeaveRoom(w, r, roomID)
	case "rename":
		s.handleRenamePlayer(w, r, roomID)
	case "poll":
		s.handleStartPoll(w, r, roomID)
	case "votes":
		s.handleCastVote(w, r, roomID)
	case "wheel":
		s.handleStartWheel(w, r, roomID)
	case "spin":
		s.handleSpin(w, r, roomID)
	case "end":
		s.handleEndActivity(w, r, roomID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	current, err := s.store.Get(roomID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(current))
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	current, err := s.store.Get(roomID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	code := current.Code
	updated, err := s.store.Leave(roomID, id.ID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	s.sessions.ClearActiveRoom(w, r)
	if updated == nil {
		s.cancelSpinTimer(roomID)
		s.deleteRoomRecord(roomID, code)
		log.Printf("room deleted room_id=%s reason=empty", roomID)
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	log.Printf("player left room_id=%s player_id=%s host_id=%s", roomID, id.ID, updated.HostID)
	s.afterRoomUpdate(updated, "player_left", EventPayload{
		RoomID:   roomID,
		PlayerID: id.ID,
		HostID:   updated.HostID,
	})
	writeJSON(w, http.StatusOK, snapshot(updated))
}

func (s *Server) handleRenamePlayer(w http.ResponseWriter, r *http.Request, roomID string) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.store.RenamePlayerForGame(roomID, id.ID, name)
	current, err := s.store.Get(roomID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	s.afterRoomUpdate(current, "player_renamed", EventPayload{
		RoomID:     roomID,
		PlayerID:   id.ID,
		PlayerName: name,
	})
	writeJSON(w, http.StatusOK, snapshot(current))
}

func (s *Server) handleStartPoll(w http.ResponseWriter, r *http.Request, roomID string) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req startPollRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.store.StartPoll(roomID, id.ID, req.Kind, req.Question, toOptions(req.Options))
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	log.Printf("poll started room_id=%s kind=%s options=%d", roomID, req.Kind, len(req.Options))
	s.afterRoomUpdate(updated, "poll_started", EventPayload{
		RoomID:      roomID,
		PlayerID:    id.ID,
		Kind:        req.Kind,
		Question:    updated.Activity.Question,
		OptionCount: len(updated.Activity.Options),
	})
	writeJSON(w, http.StatusOK, snapshot(updated))
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request, roomID string) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req castVoteRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.store.CastVote(roomID, id.ID, req.OptionID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	s.afterRoomUpdate(updated, "vote_cast", EventPayload{
		RoomID:   roomID,
		PlayerID: id.ID,
		OptionID: req.OptionID,
	})
	writeJSON(w, http.StatusOK, snapshot(updated))
}

func (s *Server) handleStartWheel(w http.ResponseWriter, r *http.Request, roomID string) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req startWheelRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.store.StartWheel(roomID, id.ID, req.Kind, toOptions(req.Options))
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	s.cancelSpinTimer(roomID)
	log.Printf("wheel started room_id=%s kind=%s options=%d", roomID, req.Kind, len(req.Options))
	s.afterRoomUpdate(updated, "wheel_started", EventPayload{
		RoomID:      roomID,
		PlayerID:    id.ID,
		Kind:        req.Kind,
		OptionCount: len(updated.Activity.Options),
	})
	writeJSON(w, http.StatusOK, snapshot(updated))
}

func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request, roomID string) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Spin(roomID, id.ID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	activity := updated.Activity
	s.scheduleSpinResolve(roomID, *activity.SpinStartTime, activity.Duration())
	log.Printf("wheel spun room_id=%s player_id=%s duration_ms=%d", roomID, id.ID, activity.SpinDuration)
	s.afterRoomUpdate(updated, "wheel_spun", EventPayload{
		RoomID:     roomID,
		PlayerID:   id.ID,
		DurationMS: activity.SpinDuration,
	})
	writeJSON(w, http.StatusOK, snapshot(updated))
}

func (s *Server) handleEndActivity(w http.ResponseWriter, r *http.Request, roomID string) {
	id, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	updated, err := s.store.EndActivity(roomID, id.ID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	s.cancelSpinTimer(roomID)
	log.Printf("activity ended room_id=%s player_id=%s", roomID, id.ID)
	s.afterRoomUpdate(updated, "activity_ended", EventPayload{
		RoomID:   roomID,
		PlayerID: id.ID,
	})
	writeJSON(w, http.StatusOK, snapshot(updated))
}

// currentIdentity resolves the caller from the Authorization header first,
// then from the guest token the session remembers.
func (s *Server) currentIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, error) {
	token := bearerToken(r)
	if token == "" {
		token = s.sessions.GuestToken(w, r)
	}
	if token == "" {
		return identity.Identity{}, identity.ErrTokenInvalid
	}
	return s.identity.Parse(token)
}

func (s *Server) requireIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, err := s.currentIdentity(w, r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "identity required")
		return identity.Identity{}, false
	}
	return id, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) writeRoomError(w http.ResponseWriter, err error) {
	var verr *room.ValidationError
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room unavailable")
	case errors.Is(err, room.ErrNotHost):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, room.ErrSpinNotIdle),
		errors.Is(err, room.ErrNoActivity),
		errors.Is(err, room.ErrWrongActivity):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr),
		errors.Is(err, room.ErrOptionNotFound),
		errors.Is(err, room.ErrPlayerNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toOptions(payloads []optionPayload) []room.Option {
	options := make([]room.Option, len(payloads))
	for i, p := range payloads {
		options[i] = room.Option{
			ID:       p.ID,
			Label:    p.Label,
			Color:    p.Color,
			PlayerID: p.PlayerID,
		}
	}
	return options
}
