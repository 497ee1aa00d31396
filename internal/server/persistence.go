package server

import (
	"encoding/json"
	"log"

	"gamenight/internal/db"
	"gamenight/internal/room"

	"gorm.io/gorm/clause"
)

// afterRoomUpdate runs the write-through side effects of a successful
// mutation: Postgres upsert, append-only event row, Redis mirror. Failures
// are logged and swallowed; the in-process store already committed.
func (s *Server) afterRoomUpdate(r *room.Room, eventType string, payload EventPayload) {
	if err := s.persistRoom(r); err != nil {
		log.Printf("persist room failed room_id=%s error=%v", r.ID, err)
	}
	if err := s.persistEvent(r.ID, eventType, payload); err != nil {
		log.Printf("persist event failed room_id=%s type=%s error=%v", r.ID, eventType, err)
	}
	if err := s.mirrorRoom(r); err != nil {
		log.Printf("mirror room failed room_id=%s error=%v", r.ID, err)
	}
}

func (s *Server) persistRoom(r *room.Room) error {
	if s.db == nil {
		return nil
	}
	document, err := json.Marshal(r)
	if err != nil {
		return err
	}
	record := db.Room{
		ID:           r.ID,
		Code:         r.Code,
		Document:     document,
		LastActivity: r.LastActivity,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&record).Error
}

func (s *Server) persistEvent(roomID, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Event{
		RoomID:   roomID,
		PlayerID: payload.PlayerID,
		Type:     eventType,
		Payload:  body,
	}
	return s.db.Create(&record).Error
}

func (s *Server) deleteRoomRecord(roomID, code string) {
	if s.db != nil {
		if err := s.db.Delete(&db.Room{}, "id = ?", roomID).Error; err != nil {
			log.Printf("delete room record failed room_id=%s error=%v", roomID, err)
		}
	}
	s.dropRoomMirror(roomID, code)
}

// RestoreRooms reloads persisted room documents into the in-process store at
// startup. Expired or empty documents are skipped; the reaper handles the
// rows themselves on their next lookup.
func (s *Server) RestoreRooms() {
	if s.db == nil {
		return
	}
	var records []db.Room
	if err := s.db.Find(&records).Error; err != nil {
		log.Printf("restore rooms failed error=%v", err)
		return
	}
	restored := 0
	for i := range records {
		var doc room.Room
		if err := json.Unmarshal(records[i].Document, &doc); err != nil {
			log.Printf("restore skipped room_id=%s error=%v", records[i].ID, err)
			continue
		}
		if err := s.store.Restore(&doc); err != nil {
			continue
		}
		restored++
	}
	log.Printf("rooms restored count=%d", restored)
}
