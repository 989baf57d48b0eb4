package ws

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pegfall/internal/logger"
)

// DefaultRoomCode is used when a client connects without a code.
const DefaultRoomCode = "MAIN"

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomBusy     = errors.New("room is busy")
)

// RoomInfo is the hub level summary of a room.
type RoomInfo struct {
	Code        string `json:"code"`
	Connections int    `json:"connections"`
}

// Hub keeps running rooms by code. Rooms share no state; the hub only
// routes connections to them.
type Hub struct {
	ctx   context.Context
	cfg   RoomConfig
	opts  []RoomOption
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub(ctx context.Context, cfg RoomConfig, opts ...RoomOption) *Hub {
	return &Hub{
		ctx:   ctx,
		cfg:   cfg,
		opts:  opts,
		rooms: make(map[string]*Room),
	}
}

// NormalizeCode upper-cases a client supplied code; empty means the default
// room.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultRoomCode
	}
	return code
}

// GetOrCreate returns the running room for code, starting it if needed.
func (h *Hub) GetOrCreate(code string) *Room {
	code = NormalizeCode(code)

	h.mu.RLock()
	r, ok := h.rooms[code]
	h.mu.RUnlock()
	if ok && !r.stopped() {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[code]; ok && !r.stopped() {
		return r
	}
	return h.startLocked(code)
}

// Attach routes a new connection to the room for code, starting the room
// if needed. The connect is queued under the hub lock, which a room also
// takes to release itself, so it never lands in a room that is going away.
func (h *Hub) Attach(code, connID string, conn Conn) (*Room, error) {
	code = NormalizeCode(code)

	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[code]
	if !ok || r.stopped() {
		r = h.startLocked(code)
	}
	if !r.TrySubmit(Connect{ConnID: connID, Conn: conn}) {
		return nil, ErrRoomBusy
	}
	return r, nil
}

func (h *Hub) Get(code string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[NormalizeCode(code)]
	if !ok || r.stopped() {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Create starts a room under a fresh random code.
func (h *Hub) Create() (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for range 16 {
		code, err := randomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := h.rooms[code]; !taken {
			return h.startLocked(code), nil
		}
	}
	return nil, errors.New("could not allocate a room code")
}

func (h *Hub) List() []RoomInfo {
	h.mu.RLock()
	out := make([]RoomInfo, 0, len(h.rooms))
	for code, r := range h.rooms {
		out = append(out, RoomInfo{Code: code, Connections: r.Connections()})
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (h *Hub) startLocked(code string) *Room {
	opts := append([]RoomOption{}, h.opts...)
	opts = append(opts, OnEmpty(h.release))
	r := NewRoom(code, h.cfg, opts...)
	h.rooms[code] = r
	go r.Run(h.ctx)
	logger.Debug("room created", "room", code)
	return r
}

// release forgets and stops r unless commands are still queued for it.
// An entry already taken over by a newer room is left alone.
func (h *Hub) release(r *Room) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.pending() > 0 {
		return false
	}
	if cur, ok := h.rooms[r.Code]; ok && cur == r {
		delete(h.rooms, r.Code)
		logger.Debug("room removed", "room", r.Code)
	}
	r.Stop()
	return true
}

// StartCleanup stops rooms that stayed without connections for longer than
// idle.
func (h *Hub) StartCleanup(interval, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-h.ctx.Done():
				return
			case now := <-ticker.C:
				h.cleanupIdleRooms(now, idle)
			}
		}
	}()
}

func (h *Hub) cleanupIdleRooms(now time.Time, idle time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for code, r := range h.rooms {
		if r.Connections() == 0 && r.pending() == 0 && r.IdleFor(now) > idle {
			delete(h.rooms, code)
			r.Stop()
			logger.Info("cleaned up idle room", "room", code)
		}
	}
}

// Shutdown stops every room.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, r := range h.rooms {
		r.Stop()
		delete(h.rooms, code)
	}
}

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
