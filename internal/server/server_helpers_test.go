package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"gamenight/internal/config"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, nil, config.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

// testClient is one browser: its own cookie jar for the session and its own
// guest token once identified.
type testClient struct {
	t        *testing.T
	base     string
	http     *http.Client
	token    string
	playerID string
}

func newTestClient(t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testClient{
		t:    t,
		base: ts.URL,
		http: &http.Client{Jar: jar},
	}
}

func (c *testClient) identify(name string) {
	c.t.Helper()
	status, body := c.post("/api/identity", map[string]any{"display_name": name})
	if status != http.StatusCreated {
		c.t.Fatalf("identify: status = %d, body = %v", status, body)
	}
	c.token, _ = body["token"].(string)
	c.playerID, _ = body["player_id"].(string)
	if c.token == "" || c.playerID == "" {
		c.t.Fatalf("identify: incomplete response %v", body)
	}
}

func (c *testClient) post(path string, payload any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			c.t.Fatalf("encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) get(path string) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	return c.do(req)
}

func (c *testClient) do(req *http.Request) (int, map[string]any) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func (c *testClient) createRoom(name string) map[string]any {
	c.t.Helper()
	status, body := c.post("/api/rooms", map[string]any{"room_name": name})
	if status != http.StatusCreated {
		c.t.Fatalf("create room: status = %d, body = %v", status, body)
	}
	return body
}

func (c *testClient) joinRoom(code string) map[string]any {
	c.t.Helper()
	status, body := c.post("/api/rooms/join", map[string]any{"code": code})
	if status != http.StatusOK {
		c.t.Fatalf("join room: status = %d, body = %v", status, body)
	}
	return body
}

func roomField(t *testing.T, body map[string]any, key string) string {
	t.Helper()
	value, ok := body[key].(string)
	if !ok {
		t.Fatalf("room field %q missing in %v", key, body)
	}
	return value
}

func playerList(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["players"].([]any)
	if !ok {
		t.Fatalf("players missing in %v", body)
	}
	players := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		player, ok := entry.(map[string]any)
		if !ok {
			t.Fatalf("player entry has wrong shape: %v", entry)
		}
		players = append(players, player)
	}
	return players
}

func activityField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	activity, ok := body["activeActivity"].(map[string]any)
	if !ok {
		t.Fatalf("activeActivity missing in %v", body)
	}
	return activity
}
