package room

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultRoomName = "Game Night"

// Store owns the authoritative state of every live room. All mutations run
// under one lock, so every update to a room's activity slot is an atomic
// conditional update: two racing spins serialize and only one finds the
// wheel idle.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	rooms   map[string]*Room
	subs    map[string]map[int]func(*Room)
	nextSub int
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		rooms: make(map[string]*Room),
		subs:  make(map[string]map[int]func(*Room)),
		now:   timeNowUTC,
	}
}

// Create starts a new room with the creator as its only player and host.
func (s *Store) Create(creatorID, creatorName, roomName string) *Room {
	if strings.TrimSpace(roomName) == "" {
		roomName = DefaultRoomName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	r := &Room{
		ID:           "room-" + uuid.NewString(),
		Code:         s.newUniqueCodeLocked(),
		Name:         roomName,
		HostID:       creatorID,
		CreatedAt:    now,
		LastActivity: now,
		Players: []Player{{
			ID:          creatorID,
			DisplayName: creatorName,
			AvatarColor: ColorFor(creatorID),
			IsHost:      true,
			JoinedAt:    now,
		}},
	}
	s.rooms[r.ID] = r
	return r.Clone()
}

// Get returns a copy of a live room. Expired rooms are deleted as a side
// effect of the lookup.
func (s *Store) Get(roomID string) (*Room, error) {
	s.mu.Lock()
	r, notify, ok := s.liveLocked(roomID)
	var snapshot *Room
	if ok {
		snapshot = r.Clone()
	}
	s.mu.Unlock()
	notify()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return snapshot, nil
}

// FindByCode matches the short join code case-insensitively among live
// rooms. A matching room that has expired is deleted and reported missing.
func (s *Store) FindByCode(code string) (*Room, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrRoomNotFound
	}
	s.mu.Lock()
	var matchID string
	for id, r := range s.rooms {
		if strings.EqualFold(r.Code, trimmed) {
			matchID = id
			break
		}
	}
	if matchID == "" {
		s.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	r, notify, ok := s.liveLocked(matchID)
	var snapshot *Room
	if ok {
		snapshot = r.Clone()
	}
	s.mu.Unlock()
	notify()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return snapshot, nil
}

// Join adds a player to the room. Joining twice with the same player id is a
// no-op that returns the current room.
func (s *Store) Join(roomID, playerID, displayName string) (*Room, error) {
	return s.mutate(roomID, func(r *Room) error {
		if _, ok := r.FindPlayer(playerID); ok {
			return nil
		}
		r.Players = append(r.Players, Player{
			ID:          playerID,
			DisplayName: displayName,
			AvatarColor: ColorFor(playerID),
			IsHost:      false,
			JoinedAt:    s.now(),
		})
		return nil
	})
}

// Leave removes the player from the room. When the last player leaves the
// room is deleted and Leave returns (nil, nil). When the departing player
// was host, the remaining player with the earliest join time becomes host.
func (s *Store) Leave(roomID, playerID string) (*Room, error) {
	s.mu.Lock()
	r, expiredNotify, ok := s.liveLocked(roomID)
	if !ok {
		s.mu.Unlock()
		expiredNotify()
		return nil, ErrRoomNotFound
	}
	idx := -1
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		snapshot := r.Clone()
		s.mu.Unlock()
		expiredNotify()
		return snapshot, nil
	}
	wasHost := r.Players[idx].ID == r.HostID
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if len(r.Players) == 0 {
		notify := s.deleteLocked(roomID)
		s.mu.Unlock()
		expiredNotify()
		notify()
		return nil, nil
	}
	if wasHost {
		r.HostID = r.Players[electHost(r.Players)].ID
		syncHostFlags(r)
	}
	r.LastActivity = s.now()
	snapshot := r.Clone()
	notify := s.notifyLocked(roomID, snapshot)
	s.mu.Unlock()
	expiredNotify()
	notify()
	return snapshot, nil
}

// RenamePlayerForGame sets the per-room display name override. Missing room
// or player is a no-op.
func (s *Store) RenamePlayerForGame(roomID, playerID, name string) {
	_, _ = s.mutateKeepStamp(roomID, func(r *Room) error {
		player, ok := r.FindPlayer(playerID)
		if !ok {
			return nil
		}
		player.DisplayNameForGame = name
		return nil
	})
}

// Update applies fn to the room under the store lock and bumps the
// last-activity stamp. Returning an error from fn leaves the room untouched
// as far as callers can observe.
func (s *Store) Update(roomID string, fn func(*Room) error) (*Room, error) {
	return s.mutate(roomID, fn)
}

// Subscribe registers fn for the room's snapshots. fn is invoked once with
// the current state before Subscribe returns, then again after every
// mutation. A deleted or expired room delivers a final nil. The returned
// function unsubscribes and is safe to call more than once.
func (s *Store) Subscribe(roomID string, fn func(*Room)) (func(), error) {
	s.mu.Lock()
	r, expiredNotify, ok := s.liveLocked(roomID)
	if !ok {
		s.mu.Unlock()
		expiredNotify()
		return nil, ErrRoomNotFound
	}
	id := s.nextSub
	s.nextSub++
	group := s.subs[roomID]
	if group == nil {
		group = make(map[int]func(*Room))
		s.subs[roomID] = group
	}
	group[id] = fn
	snapshot := r.Clone()
	s.mu.Unlock()
	expiredNotify()
	fn(snapshot)

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if group, ok := s.subs[roomID]; ok {
			delete(group, id)
			if len(group) == 0 {
				delete(s.subs, roomID)
			}
		}
	}
	return unsubscribe, nil
}

// Restore inserts a previously persisted room document, repairing its
// invariants on the way in. Used when a room is recovered from the mirror
// after a restart.
func (s *Store) Restore(r *Room) error {
	if r == nil || len(r.Players) == 0 {
		return ErrRoomNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.ID]; ok {
		return nil
	}
	for _, existing := range s.rooms {
		if strings.EqualFold(existing.Code, r.Code) {
			return nil
		}
	}
	restored := r.Clone()
	normalize(restored)
	BackfillColors(restored)
	if s.expired(restored) {
		return ErrRoomNotFound
	}
	s.rooms[restored.ID] = restored
	return nil
}

func (s *Store) mutate(roomID string, fn func(*Room) error) (*Room, error) {
	return s.mutateWith(roomID, fn, true)
}

func (s *Store) mutateKeepStamp(roomID string, fn func(*Room) error) (*Room, error) {
	return s.mutateWith(roomID, fn, false)
}

func (s *Store) mutateWith(roomID string, fn func(*Room) error, bump bool) (*Room, error) {
	s.mu.Lock()
	r, expiredNotify, ok := s.liveLocked(roomID)
	if !ok {
		s.mu.Unlock()
		expiredNotify()
		return nil, ErrRoomNotFound
	}
	working := r.Clone()
	if err := fn(working); err != nil {
		s.mu.Unlock()
		expiredNotify()
		return nil, err
	}
	if bump {
		working.LastActivity = s.now()
	}
	s.rooms[roomID] = working
	snapshot := working.Clone()
	notify := s.notifyLocked(roomID, snapshot)
	s.mu.Unlock()
	expiredNotify()
	notify()
	return snapshot, nil
}

// liveLocked looks a room up, expiring it if stale and repairing invariants
// otherwise. The returned closure delivers expiry notifications and must be
// called after the lock is released.
func (s *Store) liveLocked(roomID string) (*Room, func(), bool) {
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, func() {}, false
	}
	if s.expired(r) || len(r.Players) == 0 {
		notify := s.deleteLocked(roomID)
		return nil, notify, false
	}
	normalize(r)
	return r, func() {}, true
}

func (s *Store) expired(r *Room) bool {
	if s.ttl <= 0 {
		return false
	}
	stamp := r.LastActivity
	if stamp.IsZero() {
		stamp = r.CreatedAt
	}
	return s.now().Sub(stamp) > s.ttl
}

func (s *Store) deleteLocked(roomID string) func() {
	delete(s.rooms, roomID)
	group := s.subs[roomID]
	delete(s.subs, roomID)
	if len(group) == 0 {
		return func() {}
	}
	fns := make([]func(*Room), 0, len(group))
	for _, fn := range group {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(nil)
		}
	}
}

func (s *Store) notifyLocked(roomID string, snapshot *Room) func() {
	group := s.subs[roomID]
	if len(group) == 0 {
		return func() {}
	}
	fns := make([]func(*Room), 0, len(group))
	for _, fn := range group {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snapshot.Clone())
		}
	}
}

func (s *Store) newUniqueCodeLocked() string {
	for {
		code := newRoomCode()
		taken := false
		for _, r := range s.rooms {
			if strings.EqualFold(r.Code, code) {
				taken = true
				break
			}
		}
		if !taken {
			return code
		}
	}
}

// electHost picks the index of the remaining player with the earliest join
// time; ties keep the earliest list position, so succession is total and
// deterministic.
func electHost(players []Player) int {
	best := 0
	for i := 1; i < len(players); i++ {
		if players[i].JoinedAt.Before(players[best].JoinedAt) {
			best = i
		}
	}
	return best
}

func syncHostFlags(r *Room) {
	for i := range r.Players {
		r.Players[i].IsHost = r.Players[i].ID == r.HostID
	}
}

// normalize repairs partially written documents: missing join times fall
// back to the room's creation time, a missing or dangling hostId is
// reassigned to the first player, and isHost flags are resynchronized so
// exactly one is set.
func normalize(r *Room) {
	for i := range r.Players {
		if r.Players[i].JoinedAt.IsZero() {
			r.Players[i].JoinedAt = r.CreatedAt
		}
	}
	if len(r.Players) == 0 {
		return
	}
	if _, ok := r.FindPlayer(r.HostID); r.HostID == "" || !ok {
		r.HostID = r.Players[0].ID
	}
	syncHostFlags(r)
}

// SortedByJoin returns the players ordered by join time, list order breaking
// ties. Display fallback only; the store keeps insertion order.
func SortedByJoin(players []Player) []Player {
	sorted := make([]Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})
	return sorted
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
