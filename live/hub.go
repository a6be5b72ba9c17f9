// Package live pushes leaderboard snapshots to websocket subscribers.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fitcomp/logging"
	"fitcomp/metrics"
	"fitcomp/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the frame written to subscribers.
type Message struct {
	Type string          `json:"type"`
	Data *services.Board `json:"data,omitempty"`
}

type client struct {
	userID        string
	competitionID string
	notify        chan struct{}
}

// Hub tracks subscribers per competition. Each subscriber receives the
// leaderboard as they are allowed to see it, never a shared snapshot.
type Hub struct {
	boards   services.LeaderboardService
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu   sync.Mutex
	subs map[string]map[*client]struct{}
}

func NewHub(boards services.LeaderboardService, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		boards:   boards,
		interval: interval,
		logger:   logger,
		metrics:  m,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// CompetitionChanged wakes every subscriber of competitionID.
func (h *Hub) CompetitionChanged(competitionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs[competitionID] {
		signal(c)
	}
}

// Run refreshes every subscriber on each tick so that cycle reveals reach
// clients without a new write. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for c := range set {
			signal(c)
		}
	}
}

// Subscribers returns the number of clients watching competitionID.
func (h *Hub) Subscribers(competitionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[competitionID])
}

// Attach serves conn until the peer disconnects or ctx ends. The caller
// has already checked that userID participates in competitionID.
func (h *Hub) Attach(ctx context.Context, conn *websocket.Conn, userID, competitionID string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()

	c := &client{userID: userID, competitionID: competitionID, notify: make(chan struct{}, 1)}
	h.register(c)
	defer h.unregister(c)

	go h.readPump(conn, cancel)

	signal(c)
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.notify:
			board, err := h.boards.Leaderboard(ctx, userID, competitionID)
			if err != nil {
				if errors.Is(err, services.ErrNotParticipant) || errors.Is(err, services.ErrCompetitionNotFound) {
					return
				}
				h.logger.Error("live leaderboard failed", "competition_id", competitionID, "user_id", userID, "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Message{Type: "leaderboard", Data: board}); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so control messages are processed.
func (h *Hub) readPump(conn *websocket.Conn, done context.CancelFunc) {
	defer done()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set, ok := h.subs[c.competitionID]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[c.competitionID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.LiveClientConnected()
	h.logger.Info("live client connected", "competition_id", c.competitionID, "user_id", c.userID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.subs[c.competitionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, c.competitionID)
		}
	}
	h.mu.Unlock()
	h.metrics.LiveClientDisconnected()
	h.logger.Info("live client disconnected", "competition_id", c.competitionID, "user_id", c.userID)
}

// signal never blocks; a pending wake-up already covers this one.
func signal(c *client) {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
