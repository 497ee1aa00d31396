package server

type EventPayload struct {
	RoomID      string `json:"room_id,omitempty"`
	Code        string `json:"code,omitempty"`
	PlayerID    string `json:"player_id,omitempty"`
	PlayerName  string `json:"player,omitempty"`
	HostID      string `json:"host_id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Question    string `json:"question,omitempty"`
	OptionID    string `json:"option_id,omitempty"`
	ResultID    string `json:"result_id,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
	OptionCount int    `json:"option_count,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
