package db

import (
	"time"

	"gorm.io/datatypes"
)

// Room keeps the whole shared room document as one jsonb blob; every write
// replaces the document wholesale, so the column resolves concurrent writers
// last-writer-wins per document. Code and lastActivity are lifted into
// columns for join-by-code lookup and reaping.
type Room struct {
	ID           string         `gorm:"primaryKey;size:64"`
	Code         string         `gorm:"size:12;uniqueIndex;not null"`
	Document     datatypes.JSON `gorm:"type:jsonb;not null"`
	LastActivity time.Time      `gorm:"index;not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"index;size:64;not null"`
	PlayerID  string         `gorm:"index;size:64"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type Session struct {
	ID           string    `gorm:"primaryKey;size:64"`
	GuestToken   string    `gorm:"size:1024"`
	ActiveRoomID string    `gorm:"size:64"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
