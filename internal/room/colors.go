package room

// avatarPalette is fixed: colors are derived from stable player ids and
// written onto the player record once, so reordering or extending the
// palette must never change an already assigned color.
var avatarPalette = []string{
	"#9333ea",
	"#db2777",
	"#2563eb",
	"#ea580c",
	"#16a34a",
	"#dc2626",
	"#0d9488",
}

// ColorFor hashes a stable player id into the avatar palette. Pure and
// deterministic; persisting the result is the caller's concern.
func ColorFor(playerID string) string {
	if playerID == "" {
		return avatarPalette[0]
	}
	var hash int32
	for _, b := range []byte(playerID) {
		hash = (hash << 5) - hash + int32(b)
	}
	value := int64(hash)
	if value < 0 {
		value = -value
	}
	return avatarPalette[value%int64(len(avatarPalette))]
}

// BackfillColors assigns colors to players that lack one, leaving players
// with an existing color untouched. Reports whether anything changed.
func BackfillColors(r *Room) bool {
	changed := false
	for i := range r.Players {
		if r.Players[i].AvatarColor == "" {
			r.Players[i].AvatarColor = ColorFor(r.Players[i].ID)
			changed = true
		}
	}
	return changed
}
