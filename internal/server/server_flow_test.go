package server

import (
	"net/http"
	"strings"
	"testing"
)

func TestCreateAndJoinFlow(t *testing.T) {
	_, ts := newTestServer(t)

	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("Taco Tuesday")
	if got := roomField(t, created, "name"); got != "Taco Tuesday" {
		t.Fatalf("room name = %q", got)
	}
	if got := roomField(t, created, "hostId"); got != host.playerID {
		t.Fatalf("hostId = %q, want %q", got, host.playerID)
	}
	code := roomField(t, created, "code")

	guest := newTestClient(t, ts)
	guest.identify("Goro")
	joined := guest.joinRoom(strings.ToLower(code))
	players := playerList(t, joined)
	if len(players) != 2 {
		t.Fatalf("players = %d, want 2", len(players))
	}
	if joined["hostId"] != host.playerID {
		t.Fatalf("join must not change the host")
	}
}

func TestCreateRoomDefaultsName(t *testing.T) {
	_, ts := newTestServer(t)
	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("")
	if got := roomField(t, created, "name"); got != "Game Night" {
		t.Fatalf("room name = %q, want default", got)
	}
}

func TestIdentityRequired(t *testing.T) {
	_, ts := newTestServer(t)
	anon := newTestClient(t, ts)
	status, _ := anon.post("/api/rooms", map[string]any{"room_name": "Nope"})
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestJoinUnknownCode(t *testing.T) {
	_, ts := newTestServer(t)
	guest := newTestClient(t, ts)
	guest.identify("Goro")
	status, _ := guest.post("/api/rooms/join", map[string]any{"code": "ZZZZZZ"})
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	_, ts := newTestServer(t)
	guest := newTestClient(t, ts)
	guest.identify("Goro")
	status, _ := guest.post("/api/rooms/join", map[string]any{"code": "ABC234", "extra": true})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestSessionResume(t *testing.T) {
	_, ts := newTestServer(t)
	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("")
	roomID := roomField(t, created, "id")

	status, session := host.get("/api/session")
	if status != http.StatusOK {
		t.Fatalf("session status = %d", status)
	}
	if session["player_id"] != host.playerID {
		t.Fatalf("session player_id = %v", session["player_id"])
	}
	if session["active_room_id"] != roomID {
		t.Fatalf("session active_room_id = %v, want %q", session["active_room_id"], roomID)
	}

	status, body := host.post("/api/rooms/"+roomID+"/leave", nil)
	if status != http.StatusOK {
		t.Fatalf("leave status = %d, body = %v", status, body)
	}
	if body["deleted"] != true {
		t.Fatalf("last player leaving should delete the room, got %v", body)
	}

	_, session = host.get("/api/session")
	if session["active_room_id"] != nil {
		t.Fatalf("active_room_id should clear after leaving, got %v", session["active_room_id"])
	}
}

func TestHostLeavePromotesEarliestJoiner(t *testing.T) {
	_, ts := newTestServer(t)
	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("")
	roomID := roomField(t, created, "id")
	code := roomField(t, created, "code")

	guest := newTestClient(t, ts)
	guest.identify("Goro")
	guest.joinRoom(code)

	status, body := host.post("/api/rooms/"+roomID+"/leave", nil)
	if status != http.StatusOK {
		t.Fatalf("leave status = %d", status)
	}
	if body["hostId"] != guest.playerID {
		t.Fatalf("hostId = %v, want %q", body["hostId"], guest.playerID)
	}
	players := playerList(t, body)
	if len(players) != 1 || players[0]["isHost"] != true {
		t.Fatalf("remaining player should carry the host flag: %v", players)
	}
}

func TestRenameIsRoomScoped(t *testing.T) {
	_, ts := newTestServer(t)
	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("")
	roomID := roomField(t, created, "id")

	status, body := host.post("/api/rooms/"+roomID+"/rename", map[string]any{"name": "Captain Hana"})
	if status != http.StatusOK {
		t.Fatalf("rename status = %d, body = %v", status, body)
	}
	players := playerList(t, body)
	if players[0]["displayNameForGame"] != "Captain Hana" {
		t.Fatalf("displayNameForGame = %v", players[0]["displayNameForGame"])
	}
	if players[0]["displayName"] != "Hana" {
		t.Fatalf("profile name must stay untouched, got %v", players[0]["displayName"])
	}
}

func TestPollFlow(t *testing.T) {
	_, ts := newTestServer(t)
	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("")
	roomID := roomField(t, created, "id")
	code := roomField(t, created, "code")

	guest := newTestClient(t, ts)
	guest.identify("Goro")
	guest.joinRoom(code)

	pollBody := map[string]any{
		"kind":     "customPoll",
		"question": "Pizza or tacos?",
		"options": []map[string]any{
			{"id": "opt-1", "label": "Pizza"},
			{"id": "opt-2", "label": "Tacos"},
		},
	}

	status, body := guest.post("/api/rooms/"+roomID+"/poll", pollBody)
	if status != http.StatusForbidden {
		t.Fatalf("non-host poll start: status = %d, body = %v", status, body)
	}

	status, body = host.post("/api/rooms/"+roomID+"/poll", pollBody)
	if status != http.StatusOK {
		t.Fatalf("poll start: status = %d, body = %v", status, body)
	}

	status, body = guest.post("/api/rooms/"+roomID+"/votes", map[string]any{"option_id": "opt-1"})
	if status != http.StatusOK {
		t.Fatalf("vote: status = %d, body = %v", status, body)
	}
	status, body = guest.post("/api/rooms/"+roomID+"/votes", map[string]any{"option_id": "opt-2"})
	if status != http.StatusOK {
		t.Fatalf("revote: status = %d, body = %v", status, body)
	}

	activity := activityField(t, body)
	if activity["totalVotes"] != float64(1) {
		t.Fatalf("revote must overwrite, totalVotes = %v", activity["totalVotes"])
	}
	results, ok := activity["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results = %v", activity["results"])
	}
	second := results[1].(map[string]any)
	if second["count"] != float64(1) || second["percentage"] != float64(100) {
		t.Fatalf("second option tally = %v", second)
	}

	status, _ = guest.post("/api/rooms/"+roomID+"/votes", map[string]any{"option_id": "opt-9"})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown option: status = %d, want 400", status)
	}
}

func TestWheelSpinFlow(t *testing.T) {
	_, ts := newTestServer(t)
	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("")
	roomID := roomField(t, created, "id")

	wheelBody := map[string]any{
		"kind": "customWheel",
		"options": []map[string]any{
			{"id": "opt-1", "label": "Charades"},
			{"id": "opt-2", "label": "Trivia"},
			{"id": "opt-3", "label": "Karaoke"},
		},
	}
	status, body := host.post("/api/rooms/"+roomID+"/wheel", wheelBody)
	if status != http.StatusOK {
		t.Fatalf("wheel start: status = %d, body = %v", status, body)
	}
	if activityField(t, body)["state"] != "idle" {
		t.Fatalf("fresh wheel should be idle: %v", body)
	}

	status, body = host.post("/api/rooms/"+roomID+"/spin", nil)
	if status != http.StatusOK {
		t.Fatalf("spin: status = %d, body = %v", status, body)
	}
	activity := activityField(t, body)
	if activity["state"] != "spinning" {
		t.Fatalf("state = %v, want spinning", activity["state"])
	}
	duration, ok := activity["spinDuration"].(float64)
	if !ok || duration < 4000 || duration > 8000 {
		t.Fatalf("spinDuration = %v, want 4000..8000", activity["spinDuration"])
	}
	if activity["resultId"] == nil || activity["targetRotation"] == nil {
		t.Fatalf("winner and rotation are decided at spin start: %v", activity)
	}

	status, _ = host.post("/api/rooms/"+roomID+"/spin", nil)
	if status != http.StatusConflict {
		t.Fatalf("second spin: status = %d, want 409", status)
	}

	status, body = host.post("/api/rooms/"+roomID+"/end", nil)
	if status != http.StatusOK {
		t.Fatalf("end: status = %d", status)
	}
	if body["activeActivity"] != nil {
		t.Fatalf("end must clear the slot, got %v", body["activeActivity"])
	}
}

func TestSpinRequiresHost(t *testing.T) {
	_, ts := newTestServer(t)
	host := newTestClient(t, ts)
	host.identify("Hana")
	created := host.createRoom("")
	roomID := roomField(t, created, "id")
	code := roomField(t, created, "code")

	guest := newTestClient(t, ts)
	guest.identify("Goro")
	guest.joinRoom(code)

	host.post("/api/rooms/"+roomID+"/wheel", map[string]any{
		"kind": "customWheel",
		"options": []map[string]any{
			{"id": "opt-1", "label": "A"},
			{"id": "opt-2", "label": "B"},
		},
	})
	status, _ := guest.post("/api/rooms/"+roomID+"/spin", nil)
	if status != http.StatusForbidden {
		t.Fatalf("guest spin: status = %d, want 403", status)
	}
}

func TestGetMissingRoom(t *testing.T) {
	_, ts := newTestServer(t)
	anon := newTestClient(t, ts)
	status, _ := anon.get("/api/rooms/room-nope")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}
