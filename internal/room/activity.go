package room

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
	"time"
)

const (
	minPollOptions   = 2
	maxPollOptions   = 6
	minWheelOptions  = 2
	maxWheelOptions  = 8
	maxQuestionRunes = 200
	maxLabelRunes    = 60
)

// ValidationError rejects an activity request before any mutation is issued.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// StartPoll replaces the room's activity slot with a fresh poll. Only the
// current host may start one.
func (s *Store) StartPoll(roomID, actorID, kind, question string, options []Option) (*Room, error) {
	if kind != KindPlayerVote && kind != KindCustomPoll {
		return nil, validationErrorf("unknown poll kind %q", kind)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, validationErrorf("question is required")
	}
	if len([]rune(question)) > maxQuestionRunes {
		return nil, validationErrorf("question must be %d characters or fewer", maxQuestionRunes)
	}
	if len(options) < minPollOptions {
		return nil, validationErrorf("a poll needs at least %d options", minPollOptions)
	}
	if kind == KindCustomPoll && len(options) > maxPollOptions {
		return nil, validationErrorf("a poll allows at most %d options", maxPollOptions)
	}
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	return s.mutate(roomID, func(r *Room) error {
		if r.HostID != actorID {
			return ErrNotHost
		}
		r.Activity = &Activity{
			Kind:     kind,
			Question: question,
			Options:  cloneOptions(options),
			Votes:    make(map[string]string),
		}
		return nil
	})
}

// CastVote records the player's vote, overwriting any earlier one. Valid
// only while a poll is running and the option belongs to it.
func (s *Store) CastVote(roomID, playerID, optionID string) (*Room, error) {
	return s.mutate(roomID, func(r *Room) error {
		if r.Activity == nil {
			return ErrNoActivity
		}
		if !r.Activity.IsPoll() {
			return ErrWrongActivity
		}
		if _, ok := r.Activity.findOption(optionID); !ok {
			return ErrOptionNotFound
		}
		if _, ok := r.FindPlayer(playerID); !ok {
			return ErrPlayerNotFound
		}
		if r.Activity.Votes == nil {
			r.Activity.Votes = make(map[string]string)
		}
		r.Activity.Votes[playerID] = optionID
		return nil
	})
}

// StartWheel replaces the room's activity slot with a wheel in the idle
// state. Only the current host may start one.
func (s *Store) StartWheel(roomID, actorID, kind string, options []Option) (*Room, error) {
	if kind != KindPlayerWheel && kind != KindCustomWheel {
		return nil, validationErrorf("unknown wheel kind %q", kind)
	}
	if len(options) < minWheelOptions || len(options) > maxWheelOptions {
		return nil, validationErrorf("a wheel needs %d to %d options", minWheelOptions, maxWheelOptions)
	}
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	return s.mutate(roomID, func(r *Room) error {
		if r.HostID != actorID {
			return ErrNotHost
		}
		r.Activity = &Activity{
			Kind:    kind,
			Options: cloneOptions(options),
			State:   WheelIdle,
		}
		return nil
	})
}

// Spin decides the winner up front: it draws a uniformly random option and a
// random duration, and writes result id, start time and duration in one
// update. The transition only fires out of the idle state, so a racing
// second spin loses cleanly.
func (s *Store) Spin(roomID, actorID string) (*Room, error) {
	return s.mutate(roomID, func(r *Room) error {
		if r.HostID != actorID {
			return ErrNotHost
		}
		if r.Activity == nil {
			return ErrNoActivity
		}
		if !r.Activity.IsWheel() {
			return ErrWrongActivity
		}
		if r.Activity.State != WheelIdle {
			return ErrSpinNotIdle
		}
		winner := r.Activity.Options[randIndex(len(r.Activity.Options))]
		start := s.now()
		r.Activity.State = WheelSpinning
		r.Activity.ResultID = winner.ID
		r.Activity.SpinStartTime = &start
		r.Activity.SpinDuration = randSpinDuration()
		return nil
	})
}

// ResolveSpin flips a finished spin from spinning to result. The start time
// acts as the guard: if the activity was replaced or re-spun in the
// meantime, the stale resolution is dropped. Readers do not depend on this
// write happening (EffectiveState infers the result on its own); it exists
// so subscribers get a push the moment the spin settles.
func (s *Store) ResolveSpin(roomID string, startedAt time.Time) (*Room, error) {
	return s.mutateKeepStamp(roomID, func(r *Room) error {
		if r.Activity == nil || !r.Activity.IsWheel() {
			return ErrNoActivity
		}
		if r.Activity.State != WheelSpinning {
			return ErrSpinNotIdle
		}
		if r.Activity.SpinStartTime == nil || !r.Activity.SpinStartTime.Equal(startedAt) {
			return ErrSpinNotIdle
		}
		r.Activity.State = WheelResult
		return nil
	})
}

// EndActivity clears the activity slot unconditionally; in-flight votes and
// spins become moot.
func (s *Store) EndActivity(roomID, actorID string) (*Room, error) {
	return s.mutate(roomID, func(r *Room) error {
		if r.HostID != actorID {
			return ErrNotHost
		}
		r.Activity = nil
		return nil
	})
}

// OptionResult is the derived tally for one poll option. It is recomputed by
// every observer from the votes map and never persisted.
type OptionResult struct {
	Option     Option   `json:"option"`
	Count      int      `json:"count"`
	Percentage int      `json:"percentage"`
	Voters     []string `json:"voters"`
}

// PollResults projects the votes map onto the ordered option list. The
// second return is the total number of votes cast.
func PollResults(a *Activity) ([]OptionResult, int) {
	if !a.IsPoll() {
		return nil, 0
	}
	results := make([]OptionResult, len(a.Options))
	for i, option := range a.Options {
		results[i] = OptionResult{Option: option, Voters: []string{}}
	}
	index := make(map[string]int, len(a.Options))
	for i, option := range a.Options {
		index[option.ID] = i
	}
	total := len(a.Votes)
	for voter, optionID := range a.Votes {
		i, ok := index[optionID]
		if !ok {
			continue
		}
		results[i].Count++
		results[i].Voters = append(results[i].Voters, voter)
	}
	for i := range results {
		sort.Strings(results[i].Voters)
		if total > 0 {
			results[i].Percentage = int(math.Round(float64(results[i].Count) / float64(total) * 100))
		}
	}
	return results, total
}

// TargetRotation computes the wheel's final resting angle in degrees: a
// fixed number of full turns plus the winning option's segment. It is a pure
// function of the option list and the result id, so every client lands the
// animation on the same spot.
func TargetRotation(options []Option, resultID string) (float64, bool) {
	if len(options) == 0 {
		return 0, false
	}
	idx := -1
	for i, option := range options {
		if option.ID == resultID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, false
	}
	segment := 360.0 / float64(len(options))
	return 360.0*wheelFullRotations + float64(idx)*segment, true
}

func checkOptions(options []Option) error {
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		if strings.TrimSpace(option.ID) == "" {
			return validationErrorf("option id is required")
		}
		if strings.TrimSpace(option.Label) == "" {
			return validationErrorf("option label is required")
		}
		if len([]rune(option.Label)) > maxLabelRunes {
			return validationErrorf("option label must be %d characters or fewer", maxLabelRunes)
		}
		if _, dup := seen[option.ID]; dup {
			return validationErrorf("duplicate option id %q", option.ID)
		}
		seen[option.ID] = struct{}{}
	}
	return nil
}

func cloneOptions(options []Option) []Option {
	cloned := make([]Option, len(options))
	copy(cloned, options)
	return cloned
}

// randIndex draws uniformly from [0, n) with a cryptographically strong
// source; a biased winner would be noticed at a party.
func randIndex(n int) int {
	value, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(value.Int64())
}

func randSpinDuration() int64 {
	span := int64(SpinMaxMillis - SpinMinMillis + 1)
	value, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return SpinMinMillis
	}
	return SpinMinMillis + value.Int64()
}
