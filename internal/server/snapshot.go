package server

import (
	"time"

	"gamenight/internal/room"
)

// snapshot renders a room for clients. Derived values ride along: poll
// tallies are recomputed from the votes map, and the wheel reports its
// effective state and target rotation so every viewer lands the animation on
// the same spot.
func snapshot(r *room.Room) map[string]any {
	return snapshotAt(r, time.Now().UTC())
}

func snapshotAt(r *room.Room, now time.Time) map[string]any {
	players := make([]map[string]any, 0, len(r.Players))
	for i := range r.Players {
		p := &r.Players[i]
		entry := map[string]any{
			"id":          p.ID,
			"displayName": p.DisplayName,
			"avatarColor": p.AvatarColor,
			"isHost":      p.IsHost,
			"joinedAt":    p.JoinedAt,
		}
		if p.DisplayNameForGame != "" {
			entry["displayNameForGame"] = p.DisplayNameForGame
		}
		if p.Avatar != "" {
			entry["avatar"] = p.Avatar
		}
		players = append(players, entry)
	}
	payload := map[string]any{
		"id":             r.ID,
		"code":           r.Code,
		"name":           r.Name,
		"hostId":         r.HostID,
		"players":        players,
		"createdAt":      r.CreatedAt,
		"lastActivity":   r.LastActivity,
		"activeActivity": nil,
	}
	if r.Activity != nil {
		payload["activeActivity"] = activitySnapshot(r.Activity, now)
	}
	return payload
}

func activitySnapshot(a *room.Activity, now time.Time) map[string]any {
	entry := map[string]any{
		"kind":    a.Kind,
		"options": a.Options,
	}
	if a.IsPoll() {
		entry["question"] = a.Question
		entry["votes"] = a.Votes
		results, total := room.PollResults(a)
		entry["results"] = results
		entry["totalVotes"] = total
	}
	if a.IsWheel() {
		entry["state"] = a.EffectiveState(now)
		if a.SpinStartTime != nil {
			entry["spinStartTime"] = a.SpinStartTime
			entry["spinDuration"] = a.SpinDuration
		}
		if a.ResultID != "" {
			entry["resultId"] = a.ResultID
			if rotation, ok := room.TargetRotation(a.Options, a.ResultID); ok {
				entry["targetRotation"] = rotation
			}
		}
	}
	return entry
}
