// Package fanout pushes committed game states to every subscriber of a game.
package fanout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

type EventType string

const (
	EventState   EventType = "state"
	EventDeleted EventType = "deleted"
	EventError   EventType = "error"
)

// Event carries the full stored game. Transports render it per viewer.
type Event struct {
	Type    EventType    `json:"type"`
	GameID  string       `json:"gameId"`
	Game    *entity.Game `json:"game,omitempty"`
	Message string       `json:"message,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscription receives the events of one game. Its channel is closed when
// the game is deleted, the subscriber falls behind, or Close is called.
type Subscription struct {
	hub    *Hub
	gameID string
	events chan Event

	mu           sync.Mutex
	lastRevision int64
}

func (that *Subscription) GameID() string {
	return that.gameID
}

func (that *Subscription) Events() <-chan Event {
	return that.events
}

// Advance records revision as delivered and reports whether it is newer than
// anything this subscriber has seen.
func (that *Subscription) Advance(revision int64) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if revision <= that.lastRevision {
		return false
	}
	that.lastRevision = revision

	return true
}

func (that *Subscription) Close() {
	that.hub.Unsubscribe(that)
}

type Hub struct {
	logger *slog.Logger

	mu    sync.Mutex
	games map[string]map[*Subscription]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "fanout"),
		games:  make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a subscriber with room for bufferSize pending events.
func (that *Hub) Subscribe(gameID string, bufferSize int) *Subscription {
	if bufferSize < 1 {
		bufferSize = 1
	}

	sub := &Subscription{
		hub:          that,
		gameID:       gameID,
		events:       make(chan Event, bufferSize),
		lastRevision: -1,
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	subs, ok := that.games[gameID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		that.games[gameID] = subs
	}
	subs[sub] = struct{}{}

	return sub
}

func (that *Hub) Unsubscribe(sub *Subscription) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.remove(sub)
}

// remove must be called with mu held.
func (that *Hub) remove(sub *Subscription) {
	subs, ok := that.games[sub.gameID]
	if !ok {
		return
	}

	if _, ok = subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	close(sub.events)

	if len(subs) == 0 {
		delete(that.games, sub.gameID)
	}
}

func (that *Hub) Subscribers(gameID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.games[gameID])
}

// Publish delivers the event to local subscribers.
func (that *Hub) Publish(_ context.Context, event Event) error {
	that.Broadcast(event)
	return nil
}

// Broadcast never blocks. A subscriber whose buffer is full is dropped and
// has to resync when it reconnects.
func (that *Hub) Broadcast(event Event) {
	log := that.logger.With("method", "Broadcast", "game_id", event.GameID, "type", event.Type)

	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.games[event.GameID] {
		if event.Type == EventState && event.Game != nil && !sub.Advance(event.Game.Revision) {
			continue
		}

		select {
		case sub.events <- event:
		default:
			log.Warn("dropping stalled subscriber")
			that.remove(sub)
			continue
		}

		if event.Type == EventDeleted {
			that.remove(sub)
		}
	}
}
