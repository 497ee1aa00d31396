package server

import (
	"log"
	"time"
)

// scheduleSpinResolve arms the durable spin-to-result transition. It runs
// store-side so the wheel settles for everyone even if the host closes their
// tab mid-spin; the start time guards against resolving a wheel that was
// replaced or re-spun in the meantime.
func (s *Server) scheduleSpinResolve(roomID string, startedAt time.Time, duration time.Duration) {
	s.timersMu.Lock()
	if existing, ok := s.timers[roomID]; ok {
		existing.Stop()
	}
	s.timers[roomID] = time.AfterFunc(duration, func() {
		s.resolveSpin(roomID, startedAt)
	})
	s.timersMu.Unlock()
}

func (s *Server) cancelSpinTimer(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[roomID]; ok {
		timer.Stop()
		delete(s.timers, roomID)
	}
}

func (s *Server) resolveSpin(roomID string, startedAt time.Time) {
	s.cancelSpinTimer(roomID)
	updated, err := s.store.ResolveSpin(roomID, startedAt)
	if err != nil {
		return
	}
	log.Printf("wheel settled room_id=%s result_id=%s", roomID, updated.Activity.ResultID)
	s.afterRoomUpdate(updated, "wheel_settled", EventPayload{
		ResultID: updated.Activity.ResultID,
	})
}
