package server

import (
	"testing"
	"time"

	"gamenight/internal/config"
	"gamenight/internal/room"
)

func wheelOptions() []room.Option {
	return []room.Option{
		{ID: "opt-1", Label: "Charades"},
		{ID: "opt-2", Label: "Trivia"},
		{ID: "opt-3", Label: "Karaoke"},
	}
}

func TestScheduledResolveSettlesWheel(t *testing.T) {
	srv := New(nil, nil, config.Default())
	created := srv.store.Create("user-h", "Hana", "")
	if _, err := srv.store.StartWheel(created.ID, "user-h", room.KindCustomWheel, wheelOptions()); err != nil {
		t.Fatalf("start wheel: %v", err)
	}
	spun, err := srv.store.Spin(created.ID, "user-h")
	if err != nil {
		t.Fatalf("spin: %v", err)
	}

	srv.scheduleSpinResolve(created.ID, *spun.Activity.SpinStartTime, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		current, err := srv.store.Get(created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if current.Activity.State == room.WheelResult {
			if current.Activity.ResultID != spun.Activity.ResultID {
				t.Fatalf("result changed during resolve: %q vs %q", current.Activity.ResultID, spun.Activity.ResultID)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("wheel never settled")
}

func TestScheduledResolvePushesToSubscribers(t *testing.T) {
	srv := New(nil, nil, config.Default())
	created := srv.store.Create("user-h", "Hana", "")
	if _, err := srv.store.StartWheel(created.ID, "user-h", room.KindCustomWheel, wheelOptions()); err != nil {
		t.Fatalf("start wheel: %v", err)
	}

	states := make(chan string, 8)
	unsubscribe, err := srv.store.Subscribe(created.ID, func(r *room.Room) {
		if r != nil && r.Activity != nil {
			states <- r.Activity.State
		}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	spun, err := srv.store.Spin(created.ID, "user-h")
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	srv.scheduleSpinResolve(created.ID, *spun.Activity.SpinStartTime, 10*time.Millisecond)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case state := <-states:
			if state == room.WheelResult {
				return
			}
		case <-deadline:
			t.Fatal("no result push received")
		}
	}
}

func TestNewWheelCancelsPendingResolve(t *testing.T) {
	srv := New(nil, nil, config.Default())
	created := srv.store.Create("user-h", "Hana", "")
	if _, err := srv.store.StartWheel(created.ID, "user-h", room.KindCustomWheel, wheelOptions()); err != nil {
		t.Fatalf("start wheel: %v", err)
	}
	spun, err := srv.store.Spin(created.ID, "user-h")
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	srv.scheduleSpinResolve(created.ID, *spun.Activity.SpinStartTime, 20*time.Millisecond)

	// Replacing the wheel before the timer fires makes the resolution stale.
	if _, err := srv.store.StartWheel(created.ID, "user-h", room.KindCustomWheel, wheelOptions()); err != nil {
		t.Fatalf("restart wheel: %v", err)
	}
	srv.cancelSpinTimer(created.ID)
	time.Sleep(50 * time.Millisecond)

	current, err := srv.store.Get(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Activity.State != room.WheelIdle {
		t.Fatalf("state = %q, want idle", current.Activity.State)
	}
	if current.Activity.ResultID != "" {
		t.Fatalf("fresh wheel must not inherit a result, got %q", current.Activity.ResultID)
	}
}
