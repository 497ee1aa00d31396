package server

import (
	"context"
	"encoding/json"
	"time"

	"gamenight/internal/room"
)

const (
	roomKeyPrefix = "room:"
	codeKeyPrefix = "room:code:"
)

// mirrorRoom keeps a JSON copy of the document in Redis under the room id,
// plus a code-to-id pointer, both with the room TTL. The mirror lets a fresh
// process answer a join-by-code before RestoreRooms has run, and the TTL
// doubles as a storage-side reaper.
func (s *Server) mirrorRoom(r *room.Room) error {
	if s.redis == nil {
		return nil
	}
	document, err := json.Marshal(r)
	if err != nil {
		return err
	}
	ctx := context.Background()
	ttl := time.Duration(s.cfg.RoomTTLHours) * time.Hour
	if err := s.redis.Set(ctx, roomKeyPrefix+r.ID, document, ttl).Err(); err != nil {
		return err
	}
	return s.redis.Set(ctx, codeKeyPrefix+r.Code, r.ID, ttl).Err()
}

func (s *Server) dropRoomMirror(roomID, code string) {
	if s.redis == nil {
		return
	}
	ctx := context.Background()
	s.redis.Del(ctx, roomKeyPrefix+roomID)
	if code != "" {
		s.redis.Del(ctx, codeKeyPrefix+code)
	}
}

// restoreFromMirror resolves a join code against the Redis mirror and, on a
// hit, rehydrates the document into the in-process store.
func (s *Server) restoreFromMirror(code string) (*room.Room, bool) {
	if s.redis == nil {
		return nil, false
	}
	ctx := context.Background()
	roomID, err := s.redis.Get(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		return nil, false
	}
	document, err := s.redis.Get(ctx, roomKeyPrefix+roomID).Result()
	if err != nil {
		return nil, false
	}
	var doc room.Room
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, false
	}
	if err := s.store.Restore(&doc); err != nil {
		return nil, false
	}
	restored, err := s.store.Get(doc.ID)
	if err != nil {
		return nil, false
	}
	return restored, true
}
