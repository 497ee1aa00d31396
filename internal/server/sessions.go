package server

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"gamenight/internal/db"

	"gorm.io/gorm"
)

// sessionStore is the session-resumption port: it remembers this browser's
// guest token and its "my current room" pointer. The pointer is scoped to
// the session and never synchronized to other devices.
type sessionStore struct {
	db       *gorm.DB
	mu       sync.Mutex
	sessions map[string]sessionData
}

type sessionData struct {
	GuestToken   string
	ActiveRoomID string
}

func newSessionStore(conn *gorm.DB) *sessionStore {
	return &sessionStore{
		db:       conn,
		sessions: make(map[string]sessionData),
	}
}

func (s *sessionStore) SetGuestToken(w http.ResponseWriter, r *http.Request, token string) {
	if strings.TrimSpace(token) == "" {
		return
	}
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		data := s.sessions[id]
		data.GuestToken = token
		s.sessions[id] = data
		s.mu.Unlock()
		return
	}
	_ = s.db.Save(&db.Session{
		ID:           id,
		GuestToken:   token,
		ActiveRoomID: s.activeRoomFromDB(id),
	}).Error
}

func (s *sessionStore) GuestToken(w http.ResponseWriter, r *http.Request) string {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.sessions[id].GuestToken
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return ""
	}
	return record.GuestToken
}

func (s *sessionStore) SetActiveRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		data := s.sessions[id]
		data.ActiveRoomID = roomID
		s.sessions[id] = data
		s.mu.Unlock()
		return
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		record = db.Session{ID: id}
	}
	record.ActiveRoomID = roomID
	_ = s.db.Save(&record).Error
}

func (s *sessionStore) ActiveRoom(w http.ResponseWriter, r *http.Request) string {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.sessions[id].ActiveRoomID
	}
	return s.activeRoomFromDB(id)
}

func (s *sessionStore) ClearActiveRoom(w http.ResponseWriter, r *http.Request) {
	s.SetActiveRoom(w, r, "")
}

func (s *sessionStore) activeRoomFromDB(id string) string {
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return ""
	}
	return record.ActiveRoomID
}

func (s *sessionStore) ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie("gn_session")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     "gn_session",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}
