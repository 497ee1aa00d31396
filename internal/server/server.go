package server

import (
	"net/http"
	"sync"
	"time"

	"gamenight/internal/config"
	"gamenight/internal/identity"
	"gamenight/internal/room"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	store    *room.Store
	db       *gorm.DB
	redis    *redis.Client
	cfg      config.Config
	identity *identity.Provider
	sessions *sessionStore
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(conn *gorm.DB, rdb *redis.Client, cfg config.Config) *Server {
	ttl := time.Duration(cfg.RoomTTLHours) * time.Hour
	return &Server{
		store:    room.NewStore(ttl),
		db:       conn,
		redis:    rdb,
		cfg:      cfg,
		identity: identity.NewProvider(cfg.GuestTokenSecret, time.Duration(cfg.GuestTokenTTLHours)*time.Hour),
		sessions: newSessionStore(conn),
		timers:   make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/identity", s.handleCreateIdentity)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("POST /api/rooms/join", s.handleJoinRoom)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("GET /ws/rooms/", s.handleWebsocket)
	return mux
}
