package room

import "time"

const (
	KindPlayerVote  = "playerVote"
	KindCustomPoll  = "customPoll"
	KindPlayerWheel = "playerWheel"
	KindCustomWheel = "customWheel"
)

const (
	WheelIdle     = "idle"
	WheelSpinning = "spinning"
	WheelResult   = "result"
)

const (
	SpinMinMillis = 4000
	SpinMaxMillis = 8000
)

// wheelFullRotations is the number of complete turns the wheel animation
// makes before settling on the winning segment. Every client derives the
// same resting angle from it.
const wheelFullRotations = 4

type Player struct {
	ID                 string    `json:"id"`
	DisplayName        string    `json:"displayName"`
	DisplayNameForGame string    `json:"displayNameForGame,omitempty"`
	Avatar             string    `json:"avatar,omitempty"`
	AvatarColor        string    `json:"avatarColor,omitempty"`
	IsHost             bool      `json:"isHost"`
	JoinedAt           time.Time `json:"joinedAt"`
}

// Name returns the per-room display name when one is set.
func (p *Player) Name() string {
	if p.DisplayNameForGame != "" {
		return p.DisplayNameForGame
	}
	return p.DisplayName
}

type Option struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

// Activity is the single activeActivity slot of a room. Kind decides which
// fields are meaningful: polls carry Question and Votes, wheels carry the
// spin fields.
type Activity struct {
	Kind          string            `json:"kind"`
	Question      string            `json:"question,omitempty"`
	Options       []Option          `json:"options"`
	Votes         map[string]string `json:"votes,omitempty"`
	State         string            `json:"state,omitempty"`
	ResultID      string            `json:"resultId,omitempty"`
	SpinStartTime *time.Time        `json:"spinStartTime,omitempty"`
	SpinDuration  int64             `json:"spinDuration,omitempty"`
}

func (a *Activity) IsPoll() bool {
	return a != nil && (a.Kind == KindPlayerVote || a.Kind == KindCustomPoll)
}

func (a *Activity) IsWheel() bool {
	return a != nil && (a.Kind == KindPlayerWheel || a.Kind == KindCustomWheel)
}

// EffectiveState reports the wheel state a reader should act on at the given
// instant. A wheel whose spin window has elapsed counts as settled even if
// the stored state still says spinning, so a spin never sticks when the
// write that flips it is delayed or lost.
func (a *Activity) EffectiveState(now time.Time) string {
	if !a.IsWheel() {
		return ""
	}
	if a.State == WheelSpinning && a.SpinStartTime != nil {
		end := a.SpinStartTime.Add(time.Duration(a.SpinDuration) * time.Millisecond)
		if !now.Before(end) {
			return WheelResult
		}
	}
	return a.State
}

// Duration returns the spin duration as a time.Duration.
func (a *Activity) Duration() time.Duration {
	return time.Duration(a.SpinDuration) * time.Millisecond
}

func (a *Activity) findOption(optionID string) (Option, bool) {
	for _, option := range a.Options {
		if option.ID == optionID {
			return option, true
		}
	}
	return Option{}, false
}

type Room struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	HostID       string    `json:"hostId"`
	Players      []Player  `json:"players"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	Activity     *Activity `json:"activeActivity,omitempty"`
}

func (r *Room) FindPlayer(playerID string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return &r.Players[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers and subscribers never share memory
// with the store's authoritative room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Players = make([]Player, len(r.Players))
	copy(clone.Players, r.Players)
	if r.Activity != nil {
		activity := *r.Activity
		activity.Options = make([]Option, len(r.Activity.Options))
		copy(activity.Options, r.Activity.Options)
		if r.Activity.Votes != nil {
			activity.Votes = make(map[string]string, len(r.Activity.Votes))
			for voter, option := range r.Activity.Votes {
				activity.Votes[voter] = option
			}
		}
		if r.Activity.SpinStartTime != nil {
			start := *r.Activity.SpinStartTime
			activity.SpinStartTime = &start
		}
		clone.Activity = &activity
	}
	return &clone
}
